package admin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// DashboardDTO aggregates the marketplace health numbers.
type DashboardDTO struct {
	CustomerCount      int64                       `json:"customer_count"`
	VendorCount        int64                       `json:"vendor_count"`
	ProductCount       int64                       `json:"product_count"`
	OrderCount         int64                       `json:"order_count"`
	ReviewCount        int64                       `json:"review_count"`
	PendingVendorCount int64                       `json:"pending_vendor_count"`
	Revenue            decimal.Decimal             `json:"revenue"`
	OrdersByStatus     map[enums.OrderStatus]int64 `json:"orders_by_status"`
	RecentOrders       []AdminOrderDTO             `json:"recent_orders"`
	TopVendors         []TopVendorDTO              `json:"top_vendors"`
}

// TopVendorDTO ranks one vendor by revenue.
type TopVendorDTO struct {
	ShopName   string          `json:"shop_name"`
	OrderCount int64           `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// AdminOrderDTO is an order row with both party names attached.
type AdminOrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	OrderNumber  string            `json:"order_number"`
	CustomerName string            `json:"customer_name"`
	VendorName   string            `json:"vendor_name"`
	Status       enums.OrderStatus `json:"status"`
	Total        decimal.Decimal   `json:"total"`
	PlacedAt     time.Time         `json:"placed_at"`
}

// AdminOrderListResult pairs a page of orders with pagination metadata.
type AdminOrderListResult struct {
	Orders []AdminOrderDTO `json:"orders"`
	Page   pagination.Page `json:"pagination"`
}

// AdminVendorDTO is a vendor profile with owner account details.
type AdminVendorDTO struct {
	ID         uuid.UUID  `json:"id"`
	ShopName   string     `json:"shop_name"`
	OwnerName  string     `json:"owner_name"`
	OwnerEmail string     `json:"owner_email"`
	City       *string    `json:"city,omitempty"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AdminVendorListResult pairs a page of vendors with pagination metadata.
type AdminVendorListResult struct {
	Vendors []AdminVendorDTO `json:"vendors"`
	Page    pagination.Page  `json:"pagination"`
}

// VendorFilter narrows the admin vendor listing.
type VendorFilter struct {
	Verified *bool
	Query    string
}

// CreateCategoryRequest is the new-category payload; the slug is derived
// from the name when omitted.
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// UpdateCategoryRequest is a patch: nil fields are left untouched.
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// CategoryDTO is a category as returned to the admin surface.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newAdminOrderDTO(row orderRow) AdminOrderDTO {
	return AdminOrderDTO{
		ID:           row.ID,
		OrderNumber:  row.OrderNumber,
		CustomerName: row.CustomerName,
		VendorName:   row.VendorName,
		Status:       row.Status,
		Total:        row.Total,
		PlacedAt:     row.PlacedAt,
	}
}

func newAdminVendorDTO(row vendorRow) AdminVendorDTO {
	return AdminVendorDTO{
		ID:         row.ID,
		ShopName:   row.ShopName,
		OwnerName:  row.OwnerName,
		OwnerEmail: row.OwnerEmail,
		City:       row.City,
		Verified:   row.Verified,
		VerifiedAt: row.VerifiedAt,
		CreatedAt:  row.CreatedAt,
	}
}

func newCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
	}
}
