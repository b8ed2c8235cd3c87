package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Shelfwave/model"

	"gorm.io/gorm"
)

// ErrDuplicateProfile is returned when a username or email is already taken.
var ErrDuplicateProfile = errors.New("profile with this username or email already exists")

// ProfileRepository defines profile (account) data operations.
type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
}

// gormProfileRepository is the GORM implementation.
type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a GORM-backed profile repository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Create(ctx context.Context, profile *model.Profile) (int64, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, ErrDuplicateProfile
		}
		return 0, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile.ID, nil
}

func (r *gormProfileRepository) GetByID(ctx context.Context, id int64) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by ID %d: %w", id, err)
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by username %s: %w", username, err)
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile by email %s: %w", email, err)
	}
	return &profile, nil
}
