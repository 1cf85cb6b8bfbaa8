package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/users"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/db"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

const reviewerTargetIndex = "idx_reviews_reviewer_target"

// Service exposes review creation, vendor replies and moderation.
type Service interface {
	CreateProductReview(ctx context.Context, reviewerID, productID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)
	CreateVendorReview(ctx context.Context, reviewerID, vendorProfileID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error)

	ListVendorReviews(ctx context.Context, vendorUserID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
	Reply(ctx context.Context, vendorUserID, reviewID uuid.UUID, req ReplyRequest) (*ReviewDTO, error)

	ListAllReviews(ctx context.Context, params pagination.Params) (*ReviewListResult, error)
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
}

// ServiceParams wires the review service dependencies.
type ServiceParams struct {
	Reviews  *Repository
	Users    *users.Repository
	Profiles *vendors.ProfileRepository
	Products *vendors.ProductRepository
	Now      func() time.Time
}

type service struct {
	reviews  *Repository
	users    *users.Repository
	profiles *vendors.ProfileRepository
	products *vendors.ProductRepository
	now      func() time.Time
}

// NewService constructs the review service.
func NewService(params ServiceParams) (Service, error) {
	if params.Reviews == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("vendor profile repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		reviews:  params.Reviews,
		users:    params.Users,
		profiles: params.Profiles,
		products: params.Products,
		now:      now,
	}, nil
}

// CreateProductReview records a review against an active product. One review
// per reviewer per product.
func (s *service) CreateProductReview(ctx context.Context, reviewerID, productID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if _, err := s.products.FindActiveByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return s.create(ctx, reviewerID, enums.ReviewTargetProduct, productID, req)
}

// CreateVendorReview records a review against a vendor profile.
func (s *service) CreateVendorReview(ctx context.Context, reviewerID, vendorProfileID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if _, err := s.profiles.FindByID(ctx, vendorProfileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor")
	}
	return s.create(ctx, reviewerID, enums.ReviewTargetVendor, vendorProfileID, req)
}

func (s *service) create(ctx context.Context, reviewerID uuid.UUID, targetType enums.ReviewTarget, targetID uuid.UUID, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	review, err := s.reviews.Create(ctx, &models.Review{
		ReviewerID: reviewerID,
		TargetType: targetType,
		TargetID:   targetID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		if db.IsUniqueViolation(err, reviewerTargetIndex) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this "+targetType.String())
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert review")
	}

	reviewer, err := s.users.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load reviewer")
	}
	return &ReviewDTO{
		ID:           review.ID,
		TargetType:   review.TargetType,
		TargetID:     review.TargetID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		ReviewerName: reviewer.Name,
		CreatedAt:    review.CreatedAt,
	}, nil
}

// ListVendorReviews returns reviews left on the vendor or any of its products.
func (s *service) ListVendorReviews(ctx context.Context, vendorUserID uuid.UUID, params pagination.Params) (*ReviewListResult, error) {
	profile, err := s.profiles.FindByUserID(ctx, vendorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor profile")
	}

	params = pagination.Normalize(params)
	rows, total, err := s.reviews.ListForVendor(ctx, profile.ID, vendorUserID, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor reviews")
	}
	return newReviewListResult(rows, params, total), nil
}

// Reply attaches the vendor's reply to a review on the vendor or one of its
// products. Reviews owned by other vendors read as not found.
func (s *service) Reply(ctx context.Context, vendorUserID, reviewID uuid.UUID, req ReplyRequest) (*ReviewDTO, error) {
	if len(strings.TrimSpace(req.Reply)) < 10 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply must be at least 10 characters")
	}

	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load review")
	}

	owned, err := s.ownsReviewTarget(ctx, vendorUserID, review)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}

	repliedAt := s.now().UTC()
	if err := s.reviews.SetReply(ctx, review.ID, req.Reply, repliedAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: set review reply")
	}

	reviewer, err := s.users.FindByID(ctx, review.ReviewerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load reviewer")
	}
	reply := req.Reply
	return &ReviewDTO{
		ID:           review.ID,
		TargetType:   review.TargetType,
		TargetID:     review.TargetID,
		Rating:       review.Rating,
		Comment:      review.Comment,
		ReviewerName: reviewer.Name,
		VendorReply:  &reply,
		RepliedAt:    &repliedAt,
		CreatedAt:    review.CreatedAt,
	}, nil
}

func (s *service) ownsReviewTarget(ctx context.Context, vendorUserID uuid.UUID, review *models.Review) (bool, error) {
	switch review.TargetType {
	case enums.ReviewTargetVendor:
		profile, err := s.profiles.FindByUserID(ctx, vendorUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load vendor profile")
		}
		return profile.ID == review.TargetID, nil
	case enums.ReviewTargetProduct:
		_, err := s.products.FindForVendor(ctx, review.TargetID, vendorUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		return true, nil
	}
	return false, nil
}

// ListAllReviews returns every review for moderation.
func (s *service) ListAllReviews(ctx context.Context, params pagination.Params) (*ReviewListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.reviews.ListAll(ctx, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list reviews")
	}
	return newReviewListResult(rows, params, total), nil
}

// DeleteReview removes a review outright.
func (s *service) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	if _, err := s.reviews.FindByID(ctx, reviewID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load review")
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete review")
	}
	return nil
}
