package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a vendor listing. Deletion is soft: Active flips to
// false and the row survives so order item snapshots keep a valid reference.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	SKU         string          `gorm:"column:sku;not null;default:''"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQty    int             `gorm:"column:stock_qty;not null;default:0"`
	ImageURL    *string         `gorm:"column:image_url"`
	Active      bool            `gorm:"column:active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
