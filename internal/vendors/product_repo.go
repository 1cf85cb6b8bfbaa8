package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
)

// ProductRepository persists vendor product listings.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository builds a repository tied to the provided GORM DB.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product regardless of its active flag.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByID loads a product only while it is active.
func (r *ProductRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForVendor loads a product only when owned by the vendor user.
func (r *ProductRepository) FindForVendor(ctx context.Context, id, vendorUserID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorUserID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByVendor returns the vendor's products newest first, inactive included.
func (r *ProductRepository) ListByVendor(ctx context.Context, vendorUserID uuid.UUID, limit, offset int) ([]models.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Product{}).Where("vendor_id = ?", vendorUserID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Save persists the product fields.
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete deactivates the product, keeping the row for order snapshots.
func (r *ProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("active", false).Error
}

// DecrementStock subtracts quantity only while enough stock remains. A false
// return means the guard failed and no row changed.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ?", id, quantity).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByCategory reports how many products reference the category.
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// vendorProductRow carries a product with its review aggregates.
type vendorProductRow struct {
	models.Product
	AvgRating   float64 `gorm:"column:avg_rating"`
	ReviewCount int64   `gorm:"column:review_count"`
}

// ListByVendorWithRatings returns the vendor's products newest first with
// review aggregates, inactive included.
func (r *ProductRepository) ListByVendorWithRatings(ctx context.Context, vendorUserID uuid.UUID, limit, offset int) ([]vendorProductRow, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("vendor_id = ?", vendorUserID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []vendorProductRow
	err := r.db.WithContext(ctx).Raw(`SELECT p.*,
COALESCE(AVG(r.rating), 0) AS avg_rating,
COUNT(r.id) AS review_count
FROM products p
LEFT JOIN reviews r ON r.target_type = 'product' AND r.target_id = p.id AND r.hidden = ?
WHERE p.vendor_id = ?
GROUP BY p.id
ORDER BY p.created_at DESC
LIMIT ? OFFSET ?`, false, vendorUserID, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
