package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/categories"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// Service exposes vendor self-service: profile and product management.
type Service interface {
	GetProfile(ctx context.Context, vendorUserID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, vendorUserID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)

	ListProducts(ctx context.Context, vendorUserID uuid.UUID, params pagination.Params) (*ProductListResult, error)
	GetProduct(ctx context.Context, vendorUserID, productID uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, vendorUserID uuid.UUID, req CreateProductRequest) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, vendorUserID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, vendorUserID, productID uuid.UUID) error
}

// ServiceParams wires the vendor service dependencies.
type ServiceParams struct {
	Profiles   *ProfileRepository
	Products   *ProductRepository
	Categories *categories.Repository
}

type service struct {
	profiles   *ProfileRepository
	products   *ProductRepository
	categories *categories.Repository
}

// NewService constructs the vendor service.
func NewService(params ServiceParams) (Service, error) {
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{
		profiles:   params.Profiles,
		products:   params.Products,
		categories: params.Categories,
	}, nil
}

// GetProfile loads the caller's shop record.
func (s *service) GetProfile(ctx context.Context, vendorUserID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.loadProfile(ctx, vendorUserID)
	if err != nil {
		return nil, err
	}
	return newProfileDTO(profile), nil
}

// UpdateProfile applies the patch; nil fields stay as they are. Coordinates
// must arrive as a pair the first time they are set.
func (s *service) UpdateProfile(ctx context.Context, vendorUserID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	profile, err := s.loadProfile(ctx, vendorUserID)
	if err != nil {
		return nil, err
	}

	if req.ShopName != nil {
		profile.ShopName = *req.ShopName
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.Email != nil {
		profile.Email = req.Email
	}
	if req.Description != nil {
		profile.Description = req.Description
	}
	if req.Address != nil {
		profile.Address = req.Address
	}
	if req.City != nil {
		profile.City = req.City
	}
	if req.State != nil {
		profile.State = req.State
	}
	if req.Zip != nil {
		profile.Zip = req.Zip
	}
	if req.Country != nil {
		profile.Country = req.Country
	}
	if req.Lat != nil {
		profile.Lat = req.Lat
	}
	if req.Lng != nil {
		profile.Lng = req.Lng
	}
	if (profile.Lat == nil) != (profile.Lng == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}

	saved, err := s.profiles.Save(ctx, profile)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save vendor profile")
	}
	return newProfileDTO(saved), nil
}

// ListProducts returns the caller's products with review aggregates,
// inactive listings included.
func (s *service) ListProducts(ctx context.Context, vendorUserID uuid.UUID, params pagination.Params) (*ProductListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.products.ListByVendorWithRatings(ctx, vendorUserID, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor products")
	}

	result := &ProductListResult{
		Products: make([]ProductDTO, 0, len(rows)),
		Page:     pagination.NewPage(params, total),
	}
	for _, row := range rows {
		product := row.Product
		result.Products = append(result.Products, newProductDTO(&product, row.AvgRating, row.ReviewCount))
	}
	return result, nil
}

// GetProduct loads one of the caller's products; other vendors' products
// read as not found.
func (s *service) GetProduct(ctx context.Context, vendorUserID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.loadOwnedProduct(ctx, vendorUserID, productID)
	if err != nil {
		return nil, err
	}
	dto := newProductDTO(product, 0, 0)
	return &dto, nil
}

// CreateProduct inserts a new listing under the caller's shop.
func (s *service) CreateProduct(ctx context.Context, vendorUserID uuid.UUID, req CreateProductRequest) (*ProductDTO, error) {
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if req.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative")
	}
	if err := s.requireCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := &models.Product{
		VendorID:    vendorUserID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		StockQty:    req.StockQty,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	dto := newProductDTO(created, 0, 0)
	return &dto, nil
}

// UpdateProduct applies the patch to one of the caller's listings.
func (s *service) UpdateProduct(ctx context.Context, vendorUserID, productID uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.loadOwnedProduct(ctx, vendorUserID, productID)
	if err != nil {
		return nil, err
	}

	if req.Price != nil && req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if req.StockQty != nil && *req.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity must not be negative")
	}
	if req.CategoryID != nil {
		if err := s.requireCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *req.CategoryID
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.StockQty != nil {
		product.StockQty = *req.StockQty
	}
	if req.SKU != nil {
		product.SKU = *req.SKU
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	if req.Active != nil {
		product.Active = *req.Active
	}

	saved, err := s.products.Save(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save product")
	}
	dto := newProductDTO(saved, 0, 0)
	return &dto, nil
}

// DeleteProduct deactivates one of the caller's listings. The row survives
// so order snapshots keep a valid product reference.
func (s *service) DeleteProduct(ctx context.Context, vendorUserID, productID uuid.UUID) error {
	product, err := s.loadOwnedProduct(ctx, vendorUserID, productID)
	if err != nil {
		return err
	}
	if err := s.products.SoftDelete(ctx, product.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate product")
	}
	return nil
}

func (s *service) loadProfile(ctx context.Context, vendorUserID uuid.UUID) (*models.VendorProfile, error) {
	profile, err := s.profiles.FindByUserID(ctx, vendorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor profile")
	}
	return profile, nil
}

func (s *service) loadOwnedProduct(ctx context.Context, vendorUserID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindForVendor(ctx, productID, vendorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func (s *service) requireCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	return nil
}
