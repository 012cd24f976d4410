package repo

import (
	"context"

	"github.com/bookavenue/storefront/internal/db"
	"go.uber.org/zap"
)

// ManagerStats aggregates marketplace-wide numbers for the staff dashboard.
// Revenue sums the snapshot price of paid order items without quantity, and
// popularity counts order items with no paid filter; the two formulas are
// intentionally kept as separately specified.
type ManagerStats struct {
	TotalOrders  int64
	TotalUsers   int64
	TotalBooks   int64
	TotalRevenue int64 // cents, SUM(order_items.price) over paid orders
	RecentOrders []db.Order
	PopularBooks []BookSales
}

// BookSales is a book ranked by its number of associated order items
type BookSales struct {
	ID      uint   `gorm:"column:id"`
	Title   string `gorm:"column:title"`
	Author  string `gorm:"column:author"`
	NumSold int64  `gorm:"column:num_sold"`
}

// PublisherStats aggregates sales over one publisher's books
type PublisherStats struct {
	TotalSales   int64   `gorm:"column:total_sales"`   // count of paid order items
	TotalRevenue int64   `gorm:"column:total_revenue"` // cents, SUM(price * quantity)
	AvgRating    float64 `gorm:"-"`                    // mean rating, 1 decimal
}

// DashboardRepository computes read-only aggregations for the dashboards
type DashboardRepository struct {
	db      *db.DB
	orders  *OrderRepository
	users   *UserRepository
	catalog *CatalogRepository
	reviews *ReviewRepository
	log     *zap.Logger
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(database *db.DB, orders *OrderRepository, users *UserRepository, catalog *CatalogRepository, reviews *ReviewRepository, logger *zap.Logger) *DashboardRepository {
	return &DashboardRepository{
		db:      database,
		orders:  orders,
		users:   users,
		catalog: catalog,
		reviews: reviews,
		log:     logger,
	}
}

// ManagerStats gathers the staff dashboard aggregates
func (r *DashboardRepository) ManagerStats(ctx context.Context) (*ManagerStats, error) {
	stats := &ManagerStats{}

	var err error
	if stats.TotalOrders, err = r.orders.CountOrders(ctx); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = r.users.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.TotalBooks, err = r.catalog.CountBooks(ctx); err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&db.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.paid = ?", true).
		Select("COALESCE(SUM(order_items.price), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		r.log.Error("Failed to sum revenue", zap.Error(err))
		return nil, err
	}

	if stats.RecentOrders, err = r.orders.RecentOrders(ctx, 5); err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Model(&db.Book{}).
		Select("books.id, books.title, books.author, COUNT(order_items.id) AS num_sold").
		Joins("LEFT JOIN order_items ON order_items.book_id = books.id").
		Group("books.id, books.title, books.author").
		Order("num_sold DESC").
		Limit(5).
		Scan(&stats.PopularBooks).Error
	if err != nil {
		r.log.Error("Failed to rank popular books", zap.Error(err))
		return nil, err
	}

	return stats, nil
}

// PublisherStats gathers sale count, revenue, and mean rating for the
// publisher's own books, counting paid orders only.
func (r *DashboardRepository) PublisherStats(ctx context.Context, publisherID uint) (*PublisherStats, error) {
	stats := &PublisherStats{}

	err := r.db.WithContext(ctx).Model(&db.OrderItem{}).
		Joins("JOIN books ON books.id = order_items.book_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("books.publisher_id = ? AND orders.paid = ?", publisherID, true).
		Select("COUNT(*) AS total_sales, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS total_revenue").
		Scan(stats).Error
	if err != nil {
		r.log.Error("Failed to compute publisher stats", zap.Uint("publisher_id", publisherID), zap.Error(err))
		return nil, err
	}

	if stats.AvgRating, err = r.reviews.AverageForPublisher(ctx, publisherID); err != nil {
		return nil, err
	}

	return stats, nil
}
