package admin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/categories"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/db"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

const (
	dashboardRecentOrders = 5
	dashboardTopVendors   = 5
)

// Service exposes the admin surface: dashboard, vendor verification,
// category management and order oversight.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardDTO, error)

	ListVendors(ctx context.Context, filter VendorFilter, params pagination.Params) (*AdminVendorListResult, error)
	SetVendorVerified(ctx context.Context, vendorProfileID uuid.UUID, verified bool) (*AdminVendorDTO, error)

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListOrders(ctx context.Context, statusFilter string, params pagination.Params) (*AdminOrderListResult, error)
}

// ServiceParams wires the admin service dependencies.
type ServiceParams struct {
	Repo       *Repository
	Profiles   *vendors.ProfileRepository
	Products   *vendors.ProductRepository
	Categories *categories.Repository
	Now        func() time.Time
}

type service struct {
	repo       *Repository
	profiles   *vendors.ProfileRepository
	products   *vendors.ProductRepository
	categories *categories.Repository
	now        func() time.Time
}

// NewService constructs the admin service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("admin repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("vendor profile repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repo,
		profiles:   params.Profiles,
		products:   params.Products,
		categories: params.Categories,
		now:        now,
	}, nil
}

// Dashboard assembles the marketplace health numbers in one payload.
func (s *service) Dashboard(ctx context.Context) (*DashboardDTO, error) {
	dto := &DashboardDTO{
		OrdersByStatus: make(map[enums.OrderStatus]int64),
	}

	var err error
	if dto.CustomerCount, err = s.repo.CountUsersByRole(ctx, enums.UserRoleCustomer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count customers")
	}
	if dto.VendorCount, err = s.repo.CountUsersByRole(ctx, enums.UserRoleVendor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count vendors")
	}
	if dto.ProductCount, err = s.repo.CountProducts(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count products")
	}
	if dto.OrderCount, err = s.repo.CountOrders(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
	}
	if dto.ReviewCount, err = s.repo.CountReviews(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count reviews")
	}
	if dto.PendingVendorCount, err = s.repo.CountPendingVendors(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count pending vendors")
	}
	if dto.Revenue, err = s.repo.Revenue(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum revenue")
	}

	statusRows, err := s.repo.OrdersByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: orders by status")
	}
	for _, row := range statusRows {
		dto.OrdersByStatus[row.Status] = row.Count
	}

	recent, err := s.repo.RecentOrders(ctx, dashboardRecentOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: recent orders")
	}
	dto.RecentOrders = make([]AdminOrderDTO, 0, len(recent))
	for _, row := range recent {
		dto.RecentOrders = append(dto.RecentOrders, newAdminOrderDTO(row))
	}

	top, err := s.repo.TopVendors(ctx, dashboardTopVendors)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: top vendors")
	}
	dto.TopVendors = make([]TopVendorDTO, 0, len(top))
	for _, row := range top {
		dto.TopVendors = append(dto.TopVendors, TopVendorDTO{
			ShopName:   row.ShopName,
			OrderCount: row.OrderCount,
			Revenue:    row.Revenue,
		})
	}
	return dto, nil
}

// ListVendors pages vendor profiles for the admin view.
func (s *service) ListVendors(ctx context.Context, filter VendorFilter, params pagination.Params) (*AdminVendorListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListVendors(ctx, filter.Verified, filter.Query, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendors")
	}

	result := &AdminVendorListResult{
		Vendors: make([]AdminVendorDTO, 0, len(rows)),
		Page:    pagination.NewPage(params, total),
	}
	for _, row := range rows {
		result.Vendors = append(result.Vendors, newAdminVendorDTO(row))
	}
	return result, nil
}

// SetVendorVerified flips the verification flag and stamps the time.
func (s *service) SetVendorVerified(ctx context.Context, vendorProfileID uuid.UUID, verified bool) (*AdminVendorDTO, error) {
	profile, err := s.profiles.FindByID(ctx, vendorProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}

	at := s.now().UTC()
	if err := s.profiles.SetVerified(ctx, profile.ID, verified, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set vendor verification")
	}

	profile.Verified = verified
	if verified {
		profile.VerifiedAt = &at
	} else {
		profile.VerifiedAt = nil
	}
	return &AdminVendorDTO{
		ID:         profile.ID,
		ShopName:   profile.ShopName,
		City:       profile.City,
		Verified:   profile.Verified,
		VerifiedAt: profile.VerifiedAt,
		CreatedAt:  profile.CreatedAt,
	}, nil
}

// ListCategories returns every category ordered by name.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	dtos := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, newCategoryDTO(&rows[i]))
	}
	return dtos, nil
}

// CreateCategory inserts a category, deriving the slug from the name when
// the caller omits one.
func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	slug := ""
	if req.Slug != nil {
		slug = Slugify(*req.Slug)
	} else {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name must contain letters or digits")
	}

	created, err := s.categories.Create(ctx, &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	dto := newCategoryDTO(created)
	return &dto, nil
}

// UpdateCategory applies the patch; a changed name does not silently change
// the slug.
func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryDTO, error) {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must contain letters or digits")
		}
		category.Slug = slug
	}
	if req.Description != nil {
		category.Description = req.Description
	}

	saved, err := s.categories.Save(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save category")
	}
	dto := newCategoryDTO(saved)
	return &dto, nil
}

// DeleteCategory removes a category once nothing references it.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	category, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.products.CountByCategory(ctx, category.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count category products")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}

	if err := s.categories.Delete(ctx, category.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
	}
	return nil
}

// ListOrders pages all orders with an optional status filter.
func (s *service) ListOrders(ctx context.Context, statusFilter string, params pagination.Params) (*AdminOrderListResult, error) {
	var status enums.OrderStatus
	if statusFilter != "" {
		parsed, err := enums.ParseOrderStatus(statusFilter)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		status = parsed
	}

	params = pagination.Normalize(params)
	rows, total, err := s.repo.ListOrders(ctx, status, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}

	result := &AdminOrderListResult{
		Orders: make([]AdminOrderDTO, 0, len(rows)),
		Page:   pagination.NewPage(params, total),
	}
	for _, row := range rows {
		result.Orders = append(result.Orders, newAdminOrderDTO(row))
	}
	return result, nil
}

func (s *service) loadCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	return category, nil
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the value and collapses every non-alphanumeric run
// into a single hyphen.
func Slugify(value string) string {
	slug := slugStripPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	return strings.Trim(slug, "-")
}
