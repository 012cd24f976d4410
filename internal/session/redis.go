package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session state in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a session store over the given Redis address.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Load returns the session for the given ID, empty if none exists. Stored
// carts are normalized here, so downstream logic always sees plain ints.
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	sess := &Session{ID: id, Cart: Cart{}}

	raw, err := s.client.Get(ctx, fmt.Sprintf(KeyCart, id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if raw != "" {
		var cart Cart
		if err := json.Unmarshal([]byte(raw), &cart); err == nil {
			sess.Cart = cart
		}
	}

	uid, err := s.client.Get(ctx, fmt.Sprintf(KeyUser, id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	if uid != "" {
		if n, err := strconv.ParseUint(uid, 10, 64); err == nil {
			sess.UserID = uint(n)
		}
	}

	return sess, nil
}

// SaveCart replaces the stored cart for the session.
func (s *RedisStore) SaveCart(ctx context.Context, id string, cart Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, fmt.Sprintf(KeyCart, id), data, TTLSession).Err()
}

// ClearCart drops the stored cart for the session.
func (s *RedisStore) ClearCart(ctx context.Context, id string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyCart, id)).Err()
}

// BindUser attaches a user to the session.
func (s *RedisStore) BindUser(ctx context.Context, id string, userID uint) error {
	return s.client.Set(ctx, fmt.Sprintf(KeyUser, id), strconv.FormatUint(uint64(userID), 10), TTLSession).Err()
}

// UnbindUser detaches the user from the session.
func (s *RedisStore) UnbindUser(ctx context.Context, id string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyUser, id)).Err()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
