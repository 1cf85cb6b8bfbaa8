package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/categories"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Profiles:   vendors.NewProfileRepository(conn),
		Products:   vendors.NewProductRepository(conn),
		Categories: categories.NewRepository(conn),
		Now:        func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return svc
}

func boolptr(b bool) *bool    { return &b }
func strptr(s string) *string { return &s }

func TestDashboardAggregates(t *testing.T) {
	conn := setupAdminTestDB(t)
	svc := newTestService(t, conn)

	customer := seedUser(t, conn, "Alex", enums.UserRoleCustomer)
	vendorUser := seedUser(t, conn, "Vendor One", enums.UserRoleVendor)
	otherVendorUser := seedUser(t, conn, "Vendor Two", enums.UserRoleVendor)
	seedVendorProfile(t, conn, vendorUser.ID, "Bakery", true)
	seedVendorProfile(t, conn, otherVendorUser.ID, "Grocer", false)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, conn, customer.ID, vendorUser.ID, "30.00", enums.OrderStatusDelivered, base)
	seedOrder(t, conn, customer.ID, vendorUser.ID, "20.00", enums.OrderStatusPending, base.Add(time.Hour))
	seedOrder(t, conn, customer.ID, otherVendorUser.ID, "99.00", enums.OrderStatusCancelled, base.Add(2*time.Hour))

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), dash.CustomerCount)
	assert.Equal(t, int64(2), dash.VendorCount)
	assert.Equal(t, int64(3), dash.OrderCount)
	assert.Equal(t, int64(1), dash.PendingVendorCount)
	// Cancelled orders never count toward revenue.
	assert.Equal(t, "50", dash.Revenue.String())
	assert.Equal(t, int64(1), dash.OrdersByStatus[enums.OrderStatusPending])
	assert.Equal(t, int64(1), dash.OrdersByStatus[enums.OrderStatusCancelled])
	require.NotEmpty(t, dash.RecentOrders)
	assert.Equal(t, "Grocer", dash.RecentOrders[0].VendorName)
	require.NotEmpty(t, dash.TopVendors)
	assert.Equal(t, "Bakery", dash.TopVendors[0].ShopName)
	assert.Equal(t, int64(2), dash.TopVendors[0].OrderCount)
}

func TestListVendorsFilterAndSearch(t *testing.T) {
	conn := setupAdminTestDB(t)
	svc := newTestService(t, conn)

	first := seedUser(t, conn, "Vendor One", enums.UserRoleVendor)
	second := seedUser(t, conn, "Vendor Two", enums.UserRoleVendor)
	seedVendorProfile(t, conn, first.ID, "Bakery", true)
	seedVendorProfile(t, conn, second.ID, "Grocer", false)

	all, err := svc.ListVendors(context.Background(), VendorFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Vendors, 2)

	pending, err := svc.ListVendors(context.Background(), VendorFilter{Verified: boolptr(false)}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, pending.Vendors, 1)
	assert.Equal(t, "Grocer", pending.Vendors[0].ShopName)

	found, err := svc.ListVendors(context.Background(), VendorFilter{Query: "bake"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, found.Vendors, 1)
	assert.Equal(t, "Bakery", found.Vendors[0].ShopName)
}

func TestSetVendorVerifiedToggles(t *testing.T) {
	conn := setupAdminTestDB(t)
	svc := newTestService(t, conn)

	user := seedUser(t, conn, "Vendor", enums.UserRoleVendor)
	profile := seedVendorProfile(t, conn, user.ID, "Bakery", false)

	verified, err := svc.SetVendorVerified(context.Background(), profile.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedAt)

	unverified, err := svc.SetVendorVerified(context.Background(), profile.ID, false)
	require.NoError(t, err)
	assert.False(t, unverified.Verified)
	assert.Nil(t, unverified.VerifiedAt)

	var appErr *pkgerrors.Error
	_, err = svc.SetVendorVerified(context.Background(), uuid.New(), true)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestCategoryLifecycle(t *testing.T) {
	conn := setupAdminTestDB(t)
	svc := newTestService(t, conn)

	created, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Baked Goods"})
	require.NoError(t, err)
	assert.Equal(t, "baked-goods", created.Slug)

	_, err = svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Snacks", Slug: strptr("Baked Goods")})
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	updated, err := svc.UpdateCategory(context.Background(), created.ID, UpdateCategoryRequest{Name: strptr("Breads")})
	require.NoError(t, err)
	assert.Equal(t, "Breads", updated.Name)
	assert.Equal(t, "baked-goods", updated.Slug)

	list, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Deletion is rejected while a product references the category.
	vendorUser := seedUser(t, conn, "Vendor", enums.UserRoleVendor)
	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   vendorUser.ID,
		CategoryID: created.ID,
		Name:       "Sourdough",
		Price:      decimal.RequireFromString("4.00"),
		Active:     true,
	}
	require.NoError(t, conn.Create(product).Error)

	err = svc.DeleteCategory(context.Background(), created.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())

	require.NoError(t, conn.Delete(&models.Product{}, "id = ?", product.ID).Error)
	require.NoError(t, svc.DeleteCategory(context.Background(), created.ID))

	err = svc.DeleteCategory(context.Background(), created.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListOrdersStatusFilter(t *testing.T) {
	conn := setupAdminTestDB(t)
	svc := newTestService(t, conn)

	customer := seedUser(t, conn, "Alex", enums.UserRoleCustomer)
	vendorUser := seedUser(t, conn, "Vendor", enums.UserRoleVendor)
	seedVendorProfile(t, conn, vendorUser.ID, "Bakery", true)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedOrder(t, conn, customer.ID, vendorUser.ID, "10.00", enums.OrderStatusPending, base)
	seedOrder(t, conn, customer.ID, vendorUser.ID, "15.00", enums.OrderStatusDelivered, base.Add(time.Hour))

	all, err := svc.ListOrders(context.Background(), "", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)
	assert.Equal(t, int64(2), all.Page.Total)
	// Newest first.
	assert.Equal(t, enums.OrderStatusDelivered, all.Orders[0].Status)

	delivered, err := svc.ListOrders(context.Background(), "delivered", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, delivered.Orders, 1)

	var appErr *pkgerrors.Error
	_, err = svc.ListOrders(context.Background(), "bogus", pagination.Params{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "baked-goods", Slugify("Baked Goods"))
	assert.Equal(t, "fresh-deli", Slugify("  Fresh & Deli "))
	assert.Equal(t, "a1-b2", Slugify("A1//B2"))
	assert.Equal(t, "", Slugify("!!!"))
}
