package shop

import (
	"context"
	"math/rand"

	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/repo"
)

// suggestionsPerCategory caps how many books each purchased category
// contributes to the personalized block.
const suggestionsPerCategory = 4

// footerSize is the size of the unfiltered footer block.
const footerSize = 4

// Recommender biases catalog suggestions by the user's paid purchase
// history. Pure read, uniform random sampling per request, no caching.
type Recommender struct {
	catalog *repo.CatalogRepository
	orders  *repo.OrderRepository
}

// NewRecommender creates a recommender over the catalog and order stores.
func NewRecommender(catalog *repo.CatalogRepository, orders *repo.OrderRepository) *Recommender {
	return &Recommender{
		catalog: catalog,
		orders:  orders,
	}
}

// ForUser returns personalized suggestions: up to 4 random books from each
// category the user has bought from, excluding books already purchased,
// shuffled across categories. Callers pass userID 0 for anonymous visitors
// and get nothing.
func (r *Recommender) ForUser(ctx context.Context, userID uint) ([]db.Book, error) {
	if userID == 0 {
		return nil, nil
	}

	categoryIDs, err := r.orders.PurchasedCategoryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchased, err := r.orders.PurchasedBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var recommended []db.Book
	for _, categoryID := range categoryIDs {
		books, err := r.catalog.RandomBooksInCategory(ctx, categoryID, purchased, suggestionsPerCategory)
		if err != nil {
			return nil, err
		}
		recommended = append(recommended, books...)
	}

	rand.Shuffle(len(recommended), func(i, j int) {
		recommended[i], recommended[j] = recommended[j], recommended[i]
	})
	return recommended, nil
}

// Footer returns the always-on filler block: 4 random catalog books,
// unfiltered, regardless of authentication state.
func (r *Recommender) Footer(ctx context.Context) ([]db.Book, error) {
	return r.catalog.RandomBooks(ctx, footerSize)
}
