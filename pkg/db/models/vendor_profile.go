package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorProfile is the shop record tied 1:1 to a user with the vendor role.
// Lat/Lng stay nil until the vendor sets a location, which excludes the shop
// from geo-filtered search.
type VendorProfile struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	ShopName    string     `gorm:"column:shop_name;not null"`
	Phone       *string    `gorm:"column:phone"`
	Email       *string    `gorm:"column:email"`
	Description *string    `gorm:"column:description"`
	Address     *string    `gorm:"column:address"`
	City        *string    `gorm:"column:city"`
	State       *string    `gorm:"column:state"`
	Zip         *string    `gorm:"column:zip"`
	Country     *string    `gorm:"column:country"`
	Lat         *float64   `gorm:"column:lat;type:numeric(9,6)"`
	Lng         *float64   `gorm:"column:lng;type:numeric(9,6)"`
	Verified    bool       `gorm:"column:verified;not null;default:false"`
	VerifiedAt  *time.Time `gorm:"column:verified_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
