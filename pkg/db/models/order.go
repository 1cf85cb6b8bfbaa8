package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

// Order is an immutable record of a placed purchase. Money columns are
// snapshots taken at placement time; later product edits never touch them.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	VendorID        uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	Notes           *string           `gorm:"column:notes"`
	PlacedAt        time.Time         `gorm:"column:placed_at;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
