package shop

import (
	"context"
	"errors"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
	"go.uber.org/zap"
)

// ErrEmptyCart is returned when checkout is attempted with no cart entries
var ErrEmptyCart = errors.New("cart is empty")

// ShippingInfo carries the checkout form fields.
type ShippingInfo struct {
	FullName string
	Address  string
	City     string
	ZipCode  string
}

// Checkout converts a session cart into an order.
type Checkout struct {
	catalog *repo.CatalogRepository
	orders  *repo.OrderRepository
	log     *zap.Logger
}

// NewCheckout creates a checkout service.
func NewCheckout(catalog *repo.CatalogRepository, orders *repo.OrderRepository, logger *zap.Logger) *Checkout {
	return &Checkout{
		catalog: catalog,
		orders:  orders,
		log:     logger,
	}
}

// Place creates a paid order from the cart. Per line the book is
// re-resolved and, only when current stock covers the requested quantity,
// stock is decremented and an item created with the price pinned at the
// book's current price. Lines that fail the stock check or reference a
// deleted book are dropped without surfacing an error; the order total
// covers fulfilled lines only.
//
// The stock check reads without locking, so two simultaneous checkouts can
// both pass against a stale value. Known and accepted.
func (c *Checkout) Place(ctx context.Context, userID uint, cart session.Cart, ship ShippingInfo) (*db.Order, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := &db.Order{
		UserID:   userID,
		Paid:     true,
		FullName: ship.FullName,
		Address:  ship.Address,
		City:     ship.City,
		ZipCode:  ship.ZipCode,
	}
	if err := c.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	var total int64
	for bookID, qty := range cart {
		book, err := c.catalog.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, repo.ErrBookNotFound) {
				continue
			}
			return nil, err
		}

		if book.Stock < qty {
			c.log.Info("Dropping cart line, insufficient stock",
				zap.Uint("book_id", bookID),
				zap.Int("requested", qty),
				zap.Int("available", book.Stock),
			)
			continue
		}

		if err := c.catalog.UpdateStock(ctx, book.ID, book.Stock-qty); err != nil {
			return nil, err
		}

		item := &db.OrderItem{
			OrderID:  order.ID,
			BookID:   book.ID,
			Price:    book.Price,
			Quantity: qty,
		}
		if err := c.orders.AddItem(ctx, item); err != nil {
			return nil, err
		}

		order.Items = append(order.Items, *item)
		total += item.Cost()
	}

	order.TotalPrice = total
	if err := c.orders.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	c.log.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", userID),
		zap.Int("items", len(order.Items)),
		zap.Int64("total", total),
	)
	return order, nil
}
