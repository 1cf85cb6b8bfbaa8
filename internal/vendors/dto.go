package vendors

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// ProfileDTO is the vendor's own shop record.
type ProfileDTO struct {
	ID          uuid.UUID  `json:"id"`
	ShopName    string     `json:"shop_name"`
	Phone       *string    `json:"phone,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Description *string    `json:"description,omitempty"`
	Address     *string    `json:"address,omitempty"`
	City        *string    `json:"city,omitempty"`
	State       *string    `json:"state,omitempty"`
	Zip         *string    `json:"zip,omitempty"`
	Country     *string    `json:"country,omitempty"`
	Lat         *float64   `json:"lat,omitempty"`
	Lng         *float64   `json:"lng,omitempty"`
	Verified    bool       `json:"verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UpdateProfileRequest is a patch: nil fields are left untouched.
type UpdateProfileRequest struct {
	ShopName    *string  `json:"shop_name,omitempty" validate:"omitempty,min=2,max=120"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=255"`
	City        *string  `json:"city,omitempty" validate:"omitempty,max=120"`
	State       *string  `json:"state,omitempty" validate:"omitempty,max=120"`
	Zip         *string  `json:"zip,omitempty" validate:"omitempty,max=20"`
	Country     *string  `json:"country,omitempty" validate:"omitempty,max=120"`
	Lat         *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng         *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
}

// CreateProductRequest is the vendor's new listing payload.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=200"`
	CategoryID  uuid.UUID       `json:"category_id" validate:"required"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int             `json:"stock_qty" validate:"min=0"`
	SKU         *string         `json:"sku,omitempty" validate:"omitempty,max=64"`
	ImageURL    *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

// UpdateProductRequest is a patch: nil fields are left untouched.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	StockQty    *int             `json:"stock_qty,omitempty" validate:"omitempty,min=0"`
	SKU         *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Active      *bool            `json:"active,omitempty"`
}

// ProductDTO is a vendor-facing product with review aggregates.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku,omitempty"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int             `json:"stock_qty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Active      bool            `json:"active"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int64           `json:"review_count"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductListResult pairs a page of products with pagination metadata.
type ProductListResult struct {
	Products []ProductDTO    `json:"products"`
	Page     pagination.Page `json:"pagination"`
}

func newProfileDTO(profile *models.VendorProfile) *ProfileDTO {
	return &ProfileDTO{
		ID:          profile.ID,
		ShopName:    profile.ShopName,
		Phone:       profile.Phone,
		Email:       profile.Email,
		Description: profile.Description,
		Address:     profile.Address,
		City:        profile.City,
		State:       profile.State,
		Zip:         profile.Zip,
		Country:     profile.Country,
		Lat:         profile.Lat,
		Lng:         profile.Lng,
		Verified:    profile.Verified,
		VerifiedAt:  profile.VerifiedAt,
		CreatedAt:   profile.CreatedAt,
	}
}

func newProductDTO(product *models.Product, avgRating float64, reviewCount int64) ProductDTO {
	return ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		SKU:         product.SKU,
		CategoryID:  product.CategoryID,
		Description: product.Description,
		Price:       product.Price,
		StockQty:    product.StockQty,
		ImageURL:    product.ImageURL,
		Active:      product.Active,
		AvgRating:   avgRating,
		ReviewCount: reviewCount,
		CreatedAt:   product.CreatedAt,
	}
}
