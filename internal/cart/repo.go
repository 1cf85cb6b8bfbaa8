package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
)

// ItemRow joins cart items with live product and vendor fields.
type ItemRow struct {
	ID            uuid.UUID       `gorm:"column:id"`
	ProductID     uuid.UUID       `gorm:"column:product_id"`
	Quantity      int             `gorm:"column:quantity"`
	ProductName   string          `gorm:"column:product_name"`
	Price         decimal.Decimal `gorm:"column:price"`
	StockQty      int             `gorm:"column:stock_qty"`
	Active        bool            `gorm:"column:active"`
	ImageURL      *string         `gorm:"column:image_url"`
	VendorUserID  uuid.UUID       `gorm:"column:vendor_user_id"`
	VendorID      uuid.UUID       `gorm:"column:vendor_profile_id"`
	VendorName    string          `gorm:"column:vendor_shop_name"`
}

// Repository persists carts and their items.
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

// FindByCustomer loads the customer's cart.
func (r *Repository) FindByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the customer's cart, creating it on first use.
func (r *Repository) GetOrCreate(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{CustomerID: customerID}
	if err := r.db.WithContext(ctx).Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// ListItems loads the cart's rows joined with product and vendor fields.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]ItemRow, error) {
	var rows []ItemRow
	err := r.db.WithContext(ctx).Raw(`SELECT ci.id, ci.product_id, ci.quantity,
p.name AS product_name, p.price, p.stock_qty, p.active, p.image_url,
p.vendor_id AS vendor_user_id,
vp.id AS vendor_profile_id, vp.shop_name AS vendor_shop_name
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
JOIN vendor_profiles vp ON vp.user_id = p.vendor_id
WHERE ci.cart_id = ?
ORDER BY ci.created_at ASC`, cartID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindItem loads the row for one product in the cart.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindItemForCustomer loads an item only when it belongs to the customer's
// cart; ownership is re-validated through the join.
func (r *Repository) FindItemForCustomer(ctx context.Context, itemID, customerID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.customer_id = ?", itemID, customerID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a cart row.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity overwrites the row's quantity.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", quantity).Error
}

// DeleteItem removes one row.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// ClearItems removes every row in the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}
