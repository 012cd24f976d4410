package repo

import (
	"context"
	"errors"

	"github.com/bookavenue/storefront/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the username already exists
	ErrUsernameTaken = errors.New("username already taken")

	// ErrProfileNotFound is returned when a user has no profile.
	// Callers treat this as "not a publisher", not as a failure.
	ErrProfileNotFound = errors.New("user profile not found")
)

// UserRepository handles user accounts and publisher profiles
type UserRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:  database,
		log: logger,
	}
}

// CreateUser creates a new user account
func (r *UserRepository) CreateUser(ctx context.Context, user *db.User) error {
	var existing db.User
	err := r.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to check username", zap.String("username", user.Username), zap.Error(err))
		return err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.log.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return err
	}

	r.log.Info("User created", zap.Uint("id", user.ID), zap.String("username", user.Username))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		r.log.Error("Failed to get user", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		r.log.Error("Failed to get user", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// CreateProfile creates a user profile
func (r *UserRepository) CreateProfile(ctx context.Context, profile *db.UserProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		r.log.Error("Failed to create profile", zap.Uint("user_id", profile.UserID), zap.Error(err))
		return err
	}
	return nil
}

// ProfileByUserID retrieves the profile for a user
func (r *UserRepository) ProfileByUserID(ctx context.Context, userID uint) (*db.UserProfile, error) {
	var profile db.UserProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		r.log.Error("Failed to get profile", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &profile, nil
}

// ApproveProfile marks a publisher profile as approved
func (r *UserRepository) ApproveProfile(ctx context.Context, userID uint) error {
	result := r.db.WithContext(ctx).Model(&db.UserProfile{}).
		Where("user_id = ?", userID).
		Update("is_approved", true)
	if result.Error != nil {
		r.log.Error("Failed to approve profile", zap.Uint("user_id", userID), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// CountUsers returns the total number of user accounts
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&db.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
