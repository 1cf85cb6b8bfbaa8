package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// VendorSummaryDTO is one row of a vendor search result.
type VendorSummaryDTO struct {
	ID           uuid.UUID `json:"id"`
	ShopName     string    `json:"shop_name"`
	Description  *string   `json:"description,omitempty"`
	City         *string   `json:"city,omitempty"`
	State        *string   `json:"state,omitempty"`
	Lat          *float64  `json:"lat,omitempty"`
	Lng          *float64  `json:"lng,omitempty"`
	ProductCount int64     `json:"product_count"`
	AvgRating    float64   `json:"avg_rating"`
	ReviewCount  int64     `json:"review_count"`
	DistanceKM   *float64  `json:"distance_km,omitempty"`
}

// VendorListResult pairs vendor rows with pagination metadata.
type VendorListResult struct {
	Vendors []VendorSummaryDTO `json:"vendors"`
	Page    pagination.Page    `json:"pagination"`
}

// ProductSummaryDTO is one row of a product search result.
type ProductSummaryDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	StockQty    int             `json:"stock_qty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Vendor      VendorRefDTO    `json:"vendor"`
	AvgRating   float64         `json:"avg_rating"`
	ReviewCount int64           `json:"review_count"`
	DistanceKM  *float64        `json:"distance_km,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// VendorRefDTO is the vendor block embedded in product payloads.
type VendorRefDTO struct {
	ID       uuid.UUID `json:"id"`
	ShopName string    `json:"shop_name"`
	City     *string   `json:"city,omitempty"`
	Verified bool      `json:"verified"`
}

// ProductListResult pairs product rows with pagination metadata.
type ProductListResult struct {
	Products []ProductSummaryDTO `json:"products"`
	Page     pagination.Page     `json:"pagination"`
}

// ReviewDTO is a public review entry on vendor and product detail pages.
type ReviewDTO struct {
	ID           uuid.UUID  `json:"id"`
	ReviewerName string     `json:"reviewer_name"`
	Rating       int        `json:"rating"`
	Comment      *string    `json:"comment,omitempty"`
	VendorReply  *string    `json:"vendor_reply,omitempty"`
	RepliedAt    *time.Time `json:"replied_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// VendorDetailDTO is the full public vendor page payload.
type VendorDetailDTO struct {
	VendorSummaryDTO
	Phone    *string             `json:"phone,omitempty"`
	Email    *string             `json:"email,omitempty"`
	Address  *string             `json:"address,omitempty"`
	Zip      *string             `json:"zip,omitempty"`
	Country  *string             `json:"country,omitempty"`
	Products []ProductSummaryDTO `json:"products"`
	Reviews  []ReviewDTO         `json:"reviews"`
}

// ProductDetailDTO is the full public product page payload.
type ProductDetailDTO struct {
	ProductSummaryDTO
	Reviews []ReviewDTO         `json:"reviews"`
	Related []ProductSummaryDTO `json:"related_products"`
}

// CategoryDTO is a category with its live product count.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	ProductCount int64     `json:"product_count"`
}
