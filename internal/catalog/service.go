package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/geo"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

const (
	vendorDetailProductLimit = 20
	detailReviewLimit        = 10
	relatedProductLimit      = 4
)

// Service exposes the public browse surface.
type Service interface {
	SearchVendors(ctx context.Context, params VendorSearchParams) (*VendorListResult, error)
	GetVendor(ctx context.Context, id uuid.UUID, callerLat, callerLng *float64) (*VendorDetailDTO, error)
	SearchProducts(ctx context.Context, params ProductSearchParams) (*ProductListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) SearchVendors(ctx context.Context, params VendorSearchParams) (*VendorListResult, error) {
	if (params.Lat == nil) != (params.Lng == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}

	rows, total, err := s.repo.SearchVendors(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search vendors")
	}

	vendors := make([]VendorSummaryDTO, 0, len(rows))
	for i := range rows {
		vendors = append(vendors, newVendorSummary(&rows[i]))
	}
	return &VendorListResult{
		Vendors: vendors,
		Page:    pagination.NewPage(params.Page, total),
	}, nil
}

func (s *service) GetVendor(ctx context.Context, id uuid.UUID, callerLat, callerLng *float64) (*VendorDetailDTO, error) {
	row, err := s.repo.FindVendorByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}
	if !row.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
	}

	detail := &VendorDetailDTO{
		VendorSummaryDTO: newVendorSummary(row),
		Phone:            row.Phone,
		Email:            row.Email,
		Address:          row.Address,
		Zip:              row.Zip,
		Country:          row.Country,
		Products:         []ProductSummaryDTO{},
		Reviews:          []ReviewDTO{},
	}

	// Vendor detail distance is computed in Go from the caller's coordinates.
	if callerLat != nil && callerLng != nil && row.Lat != nil && row.Lng != nil {
		d := geo.DistanceKM(*callerLat, *callerLng, *row.Lat, *row.Lng)
		detail.DistanceKM = &d
	}

	products, err := s.repo.ListVendorProducts(ctx, row.UserID, vendorDetailProductLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor products")
	}
	for i := range products {
		detail.Products = append(detail.Products, newProductSummary(&products[i]))
	}

	reviews, err := s.repo.ListRecentReviews(ctx, enums.ReviewTargetVendor.String(), row.ID, detailReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor reviews")
	}
	detail.Reviews = newReviewDTOs(reviews)

	return detail, nil
}

func (s *service) SearchProducts(ctx context.Context, params ProductSearchParams) (*ProductListResult, error) {
	if (params.Lat == nil) != (params.Lng == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	if params.MinPrice != nil && params.MaxPrice != nil && params.MinPrice.GreaterThan(*params.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_price cannot exceed max_price")
	}
	switch params.Sort {
	case "", SortDistance, SortPrice, SortRating:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sort must be one of distance, price, rating")
	}

	rows, total, err := s.repo.SearchProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: search products")
	}

	products := make([]ProductSummaryDTO, 0, len(rows))
	for i := range rows {
		products = append(products, newProductSummary(&rows[i]))
	}
	return &ProductListResult{
		Products: products,
		Page:     pagination.NewPage(params.Page, total),
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetailDTO, error) {
	row, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	detail := &ProductDetailDTO{
		ProductSummaryDTO: newProductSummary(row),
		Reviews:           []ReviewDTO{},
		Related:           []ProductSummaryDTO{},
	}

	reviews, err := s.repo.ListRecentReviews(ctx, enums.ReviewTargetProduct.String(), row.ID, detailReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list product reviews")
	}
	detail.Reviews = newReviewDTOs(reviews)

	vendorUserID, err := s.vendorUserID(ctx, row.VendorID)
	if err != nil {
		return nil, err
	}
	related, err := s.repo.ListRelatedProducts(ctx, row, vendorUserID, relatedProductLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list related products")
	}
	for i := range related {
		detail.Related = append(detail.Related, newProductSummary(&related[i]))
	}

	return detail, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
	}
	if categories == nil {
		categories = []CategoryDTO{}
	}
	return categories, nil
}

func (s *service) vendorUserID(ctx context.Context, profileID uuid.UUID) (uuid.UUID, error) {
	vendor, err := s.repo.FindVendorByID(ctx, profileID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}
	return vendor.UserID, nil
}

func newVendorSummary(row *vendorRow) VendorSummaryDTO {
	return VendorSummaryDTO{
		ID:           row.ID,
		ShopName:     row.ShopName,
		Description:  row.Description,
		City:         row.City,
		State:        row.State,
		Lat:          row.Lat,
		Lng:          row.Lng,
		ProductCount: row.ProductCount,
		AvgRating:    row.AvgRating,
		ReviewCount:  row.ReviewCount,
		DistanceKM:   row.DistanceKM,
	}
}

func newProductSummary(row *productRow) ProductSummaryDTO {
	return ProductSummaryDTO{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		StockQty:    row.StockQty,
		ImageURL:    row.ImageURL,
		CategoryID:  row.CategoryID,
		Vendor: VendorRefDTO{
			ID:       row.VendorID,
			ShopName: row.VendorName,
			City:     row.VendorCity,
			Verified: row.VendorVerified,
		},
		AvgRating:   row.AvgRating,
		ReviewCount: row.ReviewCount,
		DistanceKM:  row.DistanceKM,
		CreatedAt:   row.CreatedAt,
	}
}

func newReviewDTOs(rows []reviewRow) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ReviewDTO{
			ID:           row.ID,
			ReviewerName: row.ReviewerName,
			Rating:       row.Rating,
			Comment:      row.Comment,
			VendorReply:  row.VendorReply,
			RepliedAt:    row.RepliedAt,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out
}
