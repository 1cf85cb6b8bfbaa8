package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

// reviewRow joins a review with reviewer and, for product targets, the
// product it was left on.
type reviewRow struct {
	models.Review
	ReviewerName string  `gorm:"column:reviewer_name"`
	ProductName  *string `gorm:"column:product_name"`
}

// Repository persists reviews.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a review. The compound unique index rejects a second review
// by the same reviewer on the same target.
func (r *Repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// FindByID loads one review.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListForVendor returns visible reviews left on the vendor itself or on any
// of the vendor's products, newest first.
func (r *Repository) ListForVendor(ctx context.Context, vendorProfileID, vendorUserID uuid.UUID, limit, offset int) ([]reviewRow, int64, error) {
	const fromClause = `FROM reviews r
JOIN users u ON u.id = r.reviewer_id
LEFT JOIN products p ON r.target_type = 'product' AND p.id = r.target_id
WHERE r.hidden = ?
  AND ((r.target_type = 'vendor' AND r.target_id = ?)
    OR (r.target_type = 'product' AND p.vendor_id = ?))`

	var total int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) "+fromClause, false, vendorProfileID, vendorUserID).
		Scan(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []reviewRow
	err = r.db.WithContext(ctx).
		Raw("SELECT r.*, u.name AS reviewer_name, p.name AS product_name "+fromClause+
			" ORDER BY r.created_at DESC LIMIT ? OFFSET ?",
			false, vendorProfileID, vendorUserID, limit, offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAll returns reviews across all targets for moderation, newest first.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]reviewRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT r.*, u.name AS reviewer_name, p.name AS product_name
FROM reviews r
JOIN users u ON u.id = r.reviewer_id
LEFT JOIN products p ON r.target_type = 'product' AND p.id = r.target_id
ORDER BY r.created_at DESC LIMIT ? OFFSET ?`, limit, offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SetReply records the vendor's reply and its timestamp.
func (r *Repository) SetReply(ctx context.Context, id uuid.UUID, reply string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", id).
		Updates(map[string]any{"vendor_reply": reply, "replied_at": at}).Error
}

// CountForTarget reports how many visible reviews a target has.
func (r *Repository) CountForTarget(ctx context.Context, targetType enums.ReviewTarget, targetID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("target_type = ? AND target_id = ? AND hidden = ?", targetType, targetID, false).
		Count(&total).Error
	return total, err
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id).Error
}
