package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/bookavenue/storefront/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrBookNotFound is returned when a book is not found
	ErrBookNotFound = errors.New("book not found")

	// ErrCategoryNotFound is returned when a category slug does not resolve
	ErrCategoryNotFound = errors.New("category not found")
)

// CatalogRepository handles category and book catalog operations
type CatalogRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(database *db.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  database,
		log: logger,
	}
}

// ListBooks returns catalog books with optional search and category filters.
// The search query matches title or author, case-insensitive.
func (r *CatalogRepository) ListBooks(ctx context.Context, query, categorySlug string) ([]db.Book, error) {
	q := r.db.WithContext(ctx).Model(&db.Book{}).Preload("Category")

	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", like, like)
	}
	if categorySlug != "" {
		category, err := r.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			return nil, err
		}
		q = q.Where("category_id = ?", category.ID)
	}

	var books []db.Book
	if err := q.Order("created_at DESC").Find(&books).Error; err != nil {
		r.log.Error("Failed to list books", zap.Error(err))
		return nil, err
	}
	return books, nil
}

// GetBook retrieves a book by ID
func (r *CatalogRepository) GetBook(ctx context.Context, id uint) (*db.Book, error) {
	var book db.Book
	err := r.db.WithContext(ctx).Preload("Category").First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		r.log.Error("Failed to get book", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &book, nil
}

// CreateBook creates a new book in the catalog
func (r *CatalogRepository) CreateBook(ctx context.Context, book *db.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		r.log.Error("Failed to create book", zap.String("title", book.Title), zap.Error(err))
		return err
	}

	r.log.Info("Book created", zap.Uint("id", book.ID), zap.String("title", book.Title))
	return nil
}

// UpdateBook saves changes to an existing book
func (r *CatalogRepository) UpdateBook(ctx context.Context, book *db.Book) error {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		r.log.Error("Failed to update book", zap.Uint("id", book.ID), zap.Error(err))
		return err
	}

	r.log.Info("Book updated", zap.Uint("id", book.ID))
	return nil
}

// UpdateStock sets a book's stock level. The caller performs the stock
// check; there is no guard against concurrent decrements (see checkout).
func (r *CatalogRepository) UpdateStock(ctx context.Context, bookID uint, stock int) error {
	result := r.db.WithContext(ctx).Model(&db.Book{}).Where("id = ?", bookID).Update("stock", stock)
	if result.Error != nil {
		r.log.Error("Failed to update stock", zap.Uint("book_id", bookID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// ListByPublisher returns a publisher's own books, newest first
func (r *CatalogRepository) ListByPublisher(ctx context.Context, publisherID uint) ([]db.Book, error) {
	var books []db.Book
	err := r.db.WithContext(ctx).
		Where("publisher_id = ?", publisherID).
		Order("created_at DESC").
		Find(&books).Error
	if err != nil {
		r.log.Error("Failed to list publisher books", zap.Uint("publisher_id", publisherID), zap.Error(err))
		return nil, err
	}
	return books, nil
}

// ListCategories returns all categories
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]db.Category, error) {
	var categories []db.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		r.log.Error("Failed to list categories", zap.Error(err))
		return nil, err
	}
	return categories, nil
}

// GetCategoryBySlug retrieves a category by its unique slug
func (r *CatalogRepository) GetCategoryBySlug(ctx context.Context, slug string) (*db.Category, error) {
	var category db.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		r.log.Error("Failed to get category", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	return &category, nil
}

// CreateCategory creates a new category
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *db.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		r.log.Error("Failed to create category", zap.String("slug", category.Slug), zap.Error(err))
		return err
	}
	return nil
}

// RandomBooks draws up to limit books uniformly at random from the catalog
func (r *CatalogRepository) RandomBooks(ctx context.Context, limit int) ([]db.Book, error) {
	var books []db.Book
	err := r.db.WithContext(ctx).
		Order("RANDOM()").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		r.log.Error("Failed to sample random books", zap.Error(err))
		return nil, err
	}
	return books, nil
}

// RandomBooksInCategory draws up to limit random books from one category,
// excluding the given book IDs.
func (r *CatalogRepository) RandomBooksInCategory(ctx context.Context, categoryID uint, exclude []uint, limit int) ([]db.Book, error) {
	q := r.db.WithContext(ctx).Where("category_id = ?", categoryID)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	var books []db.Book
	if err := q.Order("RANDOM()").Limit(limit).Find(&books).Error; err != nil {
		r.log.Error("Failed to sample category books", zap.Uint("category_id", categoryID), zap.Error(err))
		return nil, err
	}
	return books, nil
}

// RelatedBooks returns other books from the same category
func (r *CatalogRepository) RelatedBooks(ctx context.Context, categoryID, excludeBookID uint, limit int) ([]db.Book, error) {
	var books []db.Book
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND id <> ?", categoryID, excludeBookID).
		Limit(limit).
		Find(&books).Error
	if err != nil {
		r.log.Error("Failed to list related books", zap.Uint("category_id", categoryID), zap.Error(err))
		return nil, err
	}
	return books, nil
}

// CountBooks returns the total number of books in the catalog
func (r *CatalogRepository) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.Book{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
