package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/users"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Reviews:  NewRepository(conn),
		Users:    users.NewRepository(conn),
		Profiles: vendors.NewProfileRepository(conn),
		Products: vendors.NewProductRepository(conn),
		Now:      func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func strptr(s string) *string { return &s }

func TestCreateProductReview(t *testing.T) {
	conn := setupReviewsTestDB(t)
	svc := newTestService(t, conn)

	customer := seedCustomer(t, conn, "Alex")
	owner, _ := seedVendor(t, conn, "Bakery")
	product := seedProduct(t, conn, owner.ID, "Sourdough")

	review, err := svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{
		Rating:  5,
		Comment: strptr("Crusty and delicious."),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReviewTargetProduct, review.TargetType)
	assert.Equal(t, product.ID, review.TargetID)
	assert.Equal(t, "Alex", review.ReviewerName)

	// Second review on the same product by the same reviewer conflicts.
	_, err = svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{Rating: 3})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	_, err = svc.CreateProductReview(context.Background(), customer.ID, uuid.New(), CreateReviewRequest{Rating: 4})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	_, err = svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{Rating: 6})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateVendorReviewSeparateFromProductReview(t *testing.T) {
	conn := setupReviewsTestDB(t)
	svc := newTestService(t, conn)

	customer := seedCustomer(t, conn, "Sam")
	owner, profile := seedVendor(t, conn, "Grocer")
	product := seedProduct(t, conn, owner.ID, "Apples")

	// Same reviewer may review the product and the vendor independently.
	_, err := svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{Rating: 4})
	require.NoError(t, err)
	review, err := svc.CreateVendorReview(context.Background(), customer.ID, profile.ID, CreateReviewRequest{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, enums.ReviewTargetVendor, review.TargetType)

	_, err = svc.CreateVendorReview(context.Background(), customer.ID, profile.ID, CreateReviewRequest{Rating: 5})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	_, err = svc.CreateVendorReview(context.Background(), customer.ID, uuid.New(), CreateReviewRequest{Rating: 5})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListVendorReviewsCoversSelfAndProducts(t *testing.T) {
	conn := setupReviewsTestDB(t)
	svc := newTestService(t, conn)

	first := seedCustomer(t, conn, "Alex")
	second := seedCustomer(t, conn, "Sam")
	owner, profile := seedVendor(t, conn, "Deli")
	otherOwner, _ := seedVendor(t, conn, "Other")
	product := seedProduct(t, conn, owner.ID, "Pastrami")
	otherProduct := seedProduct(t, conn, otherOwner.ID, "Salami")

	_, err := svc.CreateVendorReview(context.Background(), first.ID, profile.ID, CreateReviewRequest{Rating: 5})
	require.NoError(t, err)
	_, err = svc.CreateProductReview(context.Background(), second.ID, product.ID, CreateReviewRequest{Rating: 3})
	require.NoError(t, err)
	_, err = svc.CreateProductReview(context.Background(), first.ID, otherProduct.ID, CreateReviewRequest{Rating: 1})
	require.NoError(t, err)

	list, err := svc.ListVendorReviews(context.Background(), owner.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 2)
	assert.Equal(t, int64(2), list.Page.Total)

	for _, review := range list.Reviews {
		if review.TargetType == enums.ReviewTargetProduct {
			require.NotNil(t, review.ProductName)
			assert.Equal(t, "Pastrami", *review.ProductName)
		}
	}
}

func TestReplyOwnership(t *testing.T) {
	conn := setupReviewsTestDB(t)
	svc := newTestService(t, conn)

	customer := seedCustomer(t, conn, "Alex")
	owner, _ := seedVendor(t, conn, "Butcher")
	stranger, _ := seedVendor(t, conn, "Stranger")
	product := seedProduct(t, conn, owner.ID, "Ribeye")

	review, err := svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	var appErr *pkgerrors.Error
	_, err = svc.Reply(context.Background(), owner.ID, review.ID, ReplyRequest{Reply: "short"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = svc.Reply(context.Background(), stranger.ID, review.ID, ReplyRequest{Reply: "Thanks for stopping by!"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	replied, err := svc.Reply(context.Background(), owner.ID, review.ID, ReplyRequest{Reply: "Thanks for stopping by!"})
	require.NoError(t, err)
	require.NotNil(t, replied.VendorReply)
	assert.Equal(t, "Thanks for stopping by!", *replied.VendorReply)
	require.NotNil(t, replied.RepliedAt)
}

func TestModerationListAndDelete(t *testing.T) {
	conn := setupReviewsTestDB(t)
	svc := newTestService(t, conn)

	customer := seedCustomer(t, conn, "Alex")
	owner, profile := seedVendor(t, conn, "Florist")
	product := seedProduct(t, conn, owner.ID, "Tulips")

	created, err := svc.CreateProductReview(context.Background(), customer.ID, product.ID, CreateReviewRequest{Rating: 2})
	require.NoError(t, err)
	_, err = svc.CreateVendorReview(context.Background(), customer.ID, profile.ID, CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	list, err := svc.ListAllReviews(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 2)

	require.NoError(t, svc.DeleteReview(context.Background(), created.ID))

	list, err = svc.ListAllReviews(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 1)

	err = svc.DeleteReview(context.Background(), created.ID)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
