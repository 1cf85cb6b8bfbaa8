package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

// listRow carries one order plus its aggregated item count.
type listRow struct {
	models.Order
	ItemCount int `gorm:"column:item_count"`
}

// Repository persists orders and their item snapshots.
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

// Create inserts the order together with its item snapshots.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// ListByCustomer returns the customer's orders, newest first, with per-order
// item counts.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]listRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", customerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []listRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.*, COUNT(order_items.id) AS item_count").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.customer_id = ?", customerID).
		Group("orders.id").
		Order("orders.placed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindForCustomer loads an order with items only when owned by the customer.
func (r *Repository) FindForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForVendor loads an order with items only when placed against the vendor.
func (r *Repository) FindForVendor(ctx context.Context, id, vendorUserID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND vendor_id = ?", id, vendorUserID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByVendor returns the vendor's orders with an optional status filter.
func (r *Repository) ListByVendor(ctx context.Context, vendorUserID uuid.UUID, status enums.OrderStatus, limit, offset int) ([]listRow, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("orders.vendor_id = ?", vendorUserID)
	if status != "" {
		base = base.Where("orders.status = ?", status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []listRow
	err := base.Session(&gorm.Session{}).
		Select("orders.*, COUNT(order_items.id) AS item_count").
		Joins("LEFT JOIN order_items ON order_items.order_id = orders.id").
		Group("orders.id").
		Order("orders.placed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateStatus overwrites the order status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
