package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	exchangeName = "storefront.events"
	exchangeType = "topic"

	// Event types
	EventTypeOrderPlaced = "order.placed"
	EventTypeBookCreated = "book.created"
	EventTypeBookUpdated = "book.updated"

	// Retry configuration
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Publisher is the event sink handlers publish to. Publishing is
// best-effort: a failure is logged, never surfaced to the shopper.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, orderID, userID uint, totalCents int64, itemCount int) error
	PublishBookCreated(ctx context.Context, bookID uint, title, author string, priceCents int64) error
	PublishBookUpdated(ctx context.Context, bookID uint, title string) error
	IsHealthy() bool
	Close() error
}

// Event represents a domain event
type Event struct {
	EventID      string                 `json:"event_id"`
	EventType    string                 `json:"event_type"`
	EventVersion string                 `json:"event_version"`
	Timestamp    string                 `json:"timestamp"`
	Payload      map[string]interface{} `json:"payload"`
}

// AMQPPublisher publishes events to a RabbitMQ topic exchange
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *zap.Logger
}

// NewPublisher connects to RabbitMQ and declares the storefront exchange
func NewPublisher(url string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	log.Info("Connected to RabbitMQ", zap.String("exchange", exchangeName))

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		log:     log,
	}, nil
}

// PublishOrderPlaced publishes an order placed event
func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, orderID, userID uint, totalCents int64, itemCount int) error {
	event := newEvent(EventTypeOrderPlaced, map[string]interface{}{
		"order_id":   orderID,
		"user_id":    userID,
		"total":      totalCents,
		"item_count": itemCount,
	})
	return p.publishWithRetry(ctx, EventTypeOrderPlaced, event)
}

// PublishBookCreated publishes a book created event
func (p *AMQPPublisher) PublishBookCreated(ctx context.Context, bookID uint, title, author string, priceCents int64) error {
	event := newEvent(EventTypeBookCreated, map[string]interface{}{
		"book_id": bookID,
		"title":   title,
		"author":  author,
		"price":   priceCents,
	})
	return p.publishWithRetry(ctx, EventTypeBookCreated, event)
}

// PublishBookUpdated publishes a book updated event
func (p *AMQPPublisher) PublishBookUpdated(ctx context.Context, bookID uint, title string) error {
	event := newEvent(EventTypeBookUpdated, map[string]interface{}{
		"book_id": bookID,
		"title":   title,
	})
	return p.publishWithRetry(ctx, EventTypeBookUpdated, event)
}

func newEvent(eventType string, payload map[string]interface{}) Event {
	return Event{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		EventVersion: "1.0.0",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Payload:      payload,
	}
}

// publishWithRetry publishes an event with exponential backoff retry
func (p *AMQPPublisher) publishWithRetry(ctx context.Context, routingKey string, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	backoff := initialBackoff
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}

		err := p.channel.PublishWithContext(
			ctx,
			exchangeName,
			routingKey,
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				MessageId:    event.EventID,
				Timestamp:    time.Now(),
			},
		)
		if err == nil {
			return nil
		}
		lastErr = err
		p.log.Warn("Event publish failed, retrying",
			zap.String("event_type", event.EventType),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	return fmt.Errorf("failed to publish after %d attempts: %w", maxRetries, lastErr)
}

// IsHealthy reports whether the RabbitMQ connection is open
func (p *AMQPPublisher) IsHealthy() bool {
	return p.conn != nil && !p.conn.IsClosed()
}

// Close closes the channel and connection
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// NopPublisher discards all events. Used when RabbitMQ is unavailable and
// in tests.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(ctx context.Context, orderID, userID uint, totalCents int64, itemCount int) error {
	return nil
}
func (NopPublisher) PublishBookCreated(ctx context.Context, bookID uint, title, author string, priceCents int64) error {
	return nil
}
func (NopPublisher) PublishBookUpdated(ctx context.Context, bookID uint, title string) error {
	return nil
}
func (NopPublisher) IsHealthy() bool { return true }
func (NopPublisher) Close() error    { return nil }
