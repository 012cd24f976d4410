// Package shop holds the storefront's business logic: cart resolution,
// checkout, and purchase-history recommendations.
package shop

import (
	"context"
	"errors"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
)

// CartLine is one resolved cart entry with its line total.
type CartLine struct {
	Book     db.Book
	Quantity int
	Total    int64 // cents
}

// ResolveCart resolves cart entries against the catalog and computes line
// and running totals. Entries whose book no longer exists are skipped, not
// errored on. Checkout's read path and the cart page share this so their
// pricing rules cannot drift.
func ResolveCart(ctx context.Context, catalog *repo.CatalogRepository, cart session.Cart) ([]CartLine, int64, error) {
	var lines []CartLine
	var total int64

	for bookID, qty := range cart {
		book, err := catalog.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, repo.ErrBookNotFound) {
				continue
			}
			return nil, 0, err
		}

		lineTotal := book.Price * int64(qty)
		total += lineTotal
		lines = append(lines, CartLine{Book: *book, Quantity: qty, Total: lineTotal})
	}

	return lines, total, nil
}
