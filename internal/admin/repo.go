package admin

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

// vendorRow joins a vendor profile with its owner account.
type vendorRow struct {
	models.VendorProfile
	OwnerName  string `gorm:"column:owner_name"`
	OwnerEmail string `gorm:"column:owner_email"`
}

// orderRow joins an order with the customer and vendor names.
type orderRow struct {
	models.Order
	CustomerName string `gorm:"column:customer_name"`
	VendorName   string `gorm:"column:vendor_name"`
}

type statusCount struct {
	Status enums.OrderStatus `gorm:"column:status"`
	Count  int64             `gorm:"column:count"`
}

type topVendorRow struct {
	ShopName   string          `gorm:"column:shop_name"`
	OrderCount int64           `gorm:"column:order_count"`
	Revenue    decimal.Decimal `gorm:"column:revenue"`
}

// Repository runs the cross-entity queries behind the admin surface.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountUsersByRole reports how many accounts carry the role.
func (r *Repository) CountUsersByRole(ctx context.Context, role enums.UserRole) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

// CountProducts reports the number of product rows, inactive included.
func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error
	return count, err
}

// CountOrders reports the number of placed orders.
func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// CountReviews reports the number of reviews.
func (r *Repository) CountReviews(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Count(&count).Error
	return count, err
}

// CountPendingVendors reports vendors awaiting verification.
func (r *Repository) CountPendingVendors(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorProfile{}).
		Where("verified = ?", false).
		Count(&count).Error
	return count, err
}

// Revenue sums order totals, cancelled orders excluded.
func (r *Repository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> ?`, enums.OrderStatusCancelled).
		Scan(&revenue).Error
	return revenue, err
}

// RecentOrders returns the latest placed orders with party names.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]orderRow, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).Raw(`SELECT o.*,
c.name AS customer_name, vp.shop_name AS vendor_name
FROM orders o
JOIN users c ON c.id = o.customer_id
JOIN vendor_profiles vp ON vp.user_id = o.vendor_id
ORDER BY o.placed_at DESC
LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}

// OrdersByStatus returns order counts grouped by status.
func (r *Repository) OrdersByStatus(ctx context.Context) ([]statusCount, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	return rows, err
}

// TopVendors ranks vendors by non-cancelled revenue.
func (r *Repository) TopVendors(ctx context.Context, limit int) ([]topVendorRow, error) {
	var rows []topVendorRow
	err := r.db.WithContext(ctx).Raw(`SELECT vp.shop_name,
COUNT(o.id) AS order_count,
COALESCE(SUM(o.total), 0) AS revenue
FROM orders o
JOIN vendor_profiles vp ON vp.user_id = o.vendor_id
WHERE o.status <> ?
GROUP BY vp.id, vp.shop_name
ORDER BY revenue DESC
LIMIT ?`, enums.OrderStatusCancelled, limit).Scan(&rows).Error
	return rows, err
}

// ListVendors pages vendor profiles with owner details, optionally filtered
// by verification state and a free-text search over shop and owner fields.
func (r *Repository) ListVendors(ctx context.Context, verified *bool, query string, limit, offset int) ([]vendorRow, int64, error) {
	base := r.db.WithContext(ctx).
		Table("vendor_profiles vp").
		Joins("JOIN users u ON u.id = vp.user_id")
	if verified != nil {
		base = base.Where("vp.verified = ?", *verified)
	}
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		base = base.Where("LOWER(vp.shop_name) LIKE ? OR LOWER(u.name) LIKE ? OR LOWER(u.email) LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []vendorRow
	err := base.Session(&gorm.Session{}).
		Select("vp.*, u.name AS owner_name, u.email AS owner_email").
		Order("vp.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListOrders pages every order with party names, optionally by status.
func (r *Repository) ListOrders(ctx context.Context, status enums.OrderStatus, limit, offset int) ([]orderRow, int64, error) {
	base := r.db.WithContext(ctx).
		Table("orders o").
		Joins("JOIN users c ON c.id = o.customer_id").
		Joins("JOIN vendor_profiles vp ON vp.user_id = o.vendor_id")
	if status != "" {
		base = base.Where("o.status = ?", status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []orderRow
	err := base.Session(&gorm.Session{}).
		Select("o.*, c.name AS customer_name, vp.shop_name AS vendor_name").
		Order("o.placed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
