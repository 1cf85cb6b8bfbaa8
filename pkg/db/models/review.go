package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

// Review targets either a product or a vendor, discriminated by TargetType.
// The compound unique index allows one review per reviewer per target.
type Review struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewerID  uuid.UUID          `gorm:"column:reviewer_id;type:uuid;not null;uniqueIndex:idx_reviews_reviewer_target"`
	TargetType  enums.ReviewTarget `gorm:"column:target_type;not null;uniqueIndex:idx_reviews_reviewer_target"`
	TargetID    uuid.UUID          `gorm:"column:target_id;type:uuid;not null;uniqueIndex:idx_reviews_reviewer_target;index"`
	Rating      int                `gorm:"column:rating;not null"`
	Comment     *string            `gorm:"column:comment"`
	VendorReply *string            `gorm:"column:vendor_reply"`
	RepliedAt   *time.Time         `gorm:"column:replied_at"`
	Hidden      bool               `gorm:"column:hidden;not null;default:false"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
