package repo

import (
	"context"
	"math"

	"github.com/bookavenue/storefront/internal/db"
	"go.uber.org/zap"
)

// ReviewRepository handles book reviews
type ReviewRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(database *db.DB, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:  database,
		log: logger,
	}
}

// CreateReview records a review
func (r *ReviewRepository) CreateReview(ctx context.Context, review *db.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		r.log.Error("Failed to create review",
			zap.Uint("book_id", review.BookID),
			zap.Uint("user_id", review.UserID),
			zap.Error(err),
		)
		return err
	}

	r.log.Info("Review created",
		zap.Uint("book_id", review.BookID),
		zap.Uint("user_id", review.UserID),
		zap.Int("rating", review.Rating),
	)
	return nil
}

// Exists reports whether the (user, book) pair already has a review.
// Uniqueness is an application check, not a database constraint.
func (r *ReviewRepository) Exists(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Review{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	if err != nil {
		r.log.Error("Failed to check review existence", zap.Uint("user_id", userID), zap.Error(err))
		return false, err
	}
	return count > 0, nil
}

// ListByBook returns a book's reviews, newest first
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID uint) ([]db.Review, error) {
	var reviews []db.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		r.log.Error("Failed to list reviews", zap.Uint("book_id", bookID), zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

// AverageForBook returns the mean rating for a book, rounded to 1 decimal
// place. A book with no reviews averages 0.
func (r *ReviewRepository) AverageForBook(ctx context.Context, bookID uint) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&db.Review{}).
		Where("book_id = ?", bookID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	if err != nil {
		r.log.Error("Failed to average ratings", zap.Uint("book_id", bookID), zap.Error(err))
		return 0, err
	}
	return round1(avg), nil
}

// AverageForPublisher returns the mean rating across all reviews of the
// publisher's books, rounded to 1 decimal place, 0 when there are none.
func (r *ReviewRepository) AverageForPublisher(ctx context.Context, publisherID uint) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&db.Review{}).
		Joins("JOIN books ON books.id = reviews.book_id").
		Where("books.publisher_id = ?", publisherID).
		Select("COALESCE(AVG(reviews.rating), 0)").
		Scan(&avg).Error
	if err != nil {
		r.log.Error("Failed to average publisher ratings", zap.Uint("publisher_id", publisherID), zap.Error(err))
		return 0, err
	}
	return round1(avg), nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
