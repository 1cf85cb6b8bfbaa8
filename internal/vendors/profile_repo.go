package vendors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
)

// ProfileRepository persists vendor profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository builds a repository tied to the provided GORM DB.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Create inserts a vendor profile.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.VendorProfile) (*models.VendorProfile, error) {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByID loads a profile by its UUID.
func (r *ProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserID loads the profile owned by the given user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	var profile models.VendorProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save persists the provided profile fields.
func (r *ProfileRepository) Save(ctx context.Context, profile *models.VendorProfile) (*models.VendorProfile, error) {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// SetVerified flips the verified flag, stamping verified_at when turning on.
func (r *ProfileRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) error {
	updates := map[string]any{"verified": verified}
	if verified {
		updates["verified_at"] = at
	} else {
		updates["verified_at"] = nil
	}
	return r.db.WithContext(ctx).
		Model(&models.VendorProfile{}).
		Where("id = ?", id).
		Updates(updates).Error
}
