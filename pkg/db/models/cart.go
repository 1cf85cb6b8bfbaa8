package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the single open cart per customer. One row per user, created
// lazily on the first add.
type Cart struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Items []CartItem `gorm:"foreignKey:CartID"`
}
