package repo

import (
	"context"
	"errors"

	"github.com/bookavenue/storefront/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrOrderNotFound is returned when an order is not found
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository handles orders and their line items
type OrderRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(database *db.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{
		db:  database,
		log: logger,
	}
}

// CreateOrder creates a new order record
func (r *OrderRepository) CreateOrder(ctx context.Context, order *db.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		r.log.Error("Failed to create order", zap.Uint("user_id", order.UserID), zap.Error(err))
		return err
	}

	r.log.Info("Order created", zap.Uint("id", order.ID), zap.Uint("user_id", order.UserID))
	return nil
}

// SaveOrder persists changes to an order
func (r *OrderRepository) SaveOrder(ctx context.Context, order *db.Order) error {
	if err := r.db.WithContext(ctx).Save(order).Error; err != nil {
		r.log.Error("Failed to save order", zap.Uint("id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

// AddItem creates an order line item with its price snapshot
func (r *OrderRepository) AddItem(ctx context.Context, item *db.OrderItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		r.log.Error("Failed to create order item",
			zap.Uint("order_id", item.OrderID),
			zap.Uint("book_id", item.BookID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetOrder retrieves an order with its items
func (r *OrderRepository) GetOrder(ctx context.Context, id uint) (*db.Order, error) {
	var order db.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("Items.Book").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		r.log.Error("Failed to get order", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first, with items preloaded
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]db.Order, error) {
	var orders []db.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		r.log.Error("Failed to list orders", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// HasPaidItem reports whether a paid order item exists for the (user, book)
// pair. This is the verified-purchase signal for reviews.
func (r *OrderRepository) HasPaidItem(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.paid = ? AND order_items.book_id = ?", userID, true, bookID).
		Count(&count).Error
	if err != nil {
		r.log.Error("Failed to check paid item",
			zap.Uint("user_id", userID),
			zap.Uint("book_id", bookID),
			zap.Error(err),
		)
		return false, err
	}
	return count > 0, nil
}

// PurchasedCategoryIDs returns the distinct categories appearing in the
// user's paid purchases.
func (r *OrderRepository) PurchasedCategoryIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&db.OrderItem{}).
		Distinct("books.category_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN books ON books.id = order_items.book_id").
		Where("orders.user_id = ? AND orders.paid = ?", userID, true).
		Pluck("books.category_id", &ids).Error
	if err != nil {
		r.log.Error("Failed to list purchased categories", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

// PurchasedBookIDs returns the distinct book IDs the user has bought in
// paid orders.
func (r *OrderRepository) PurchasedBookIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&db.OrderItem{}).
		Distinct("order_items.book_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.paid = ?", userID, true).
		Pluck("order_items.book_id", &ids).Error
	if err != nil {
		r.log.Error("Failed to list purchased books", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return ids, nil
}

// RecentOrders returns the most recent orders across all users
func (r *OrderRepository) RecentOrders(ctx context.Context, limit int) ([]db.Order, error) {
	var orders []db.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		r.log.Error("Failed to list recent orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// CountOrders returns the total number of orders
func (r *OrderRepository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.Order{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
