package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/geo"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

var registerGeoDriver sync.Once

// setupGeoTestDB opens an in-memory database whose driver carries the trig
// functions the distance expression needs. Stock sqlite ships without acos,
// cos, sin and radians.
func setupGeoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	registerGeoDriver.Do(func() {
		sql.Register("sqlite3_geo", &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				funcs := map[string]any{
					"cos":     math.Cos,
					"sin":     math.Sin,
					"radians": func(deg float64) float64 { return deg * math.Pi / 180 },
					"acos": func(x float64) float64 {
						// Identical points can land a hair past 1.
						if x > 1 {
							x = 1
						}
						if x < -1 {
							x = -1
						}
						return math.Acos(x)
					},
				}
				for name, fn := range funcs {
					if err := conn.RegisterFunc(name, fn, true); err != nil {
						return err
					}
				}
				return nil
			},
		})
	})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite3_geo", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	applyCatalogSchema(t, conn)
	return conn
}

func seedVendorAt(t *testing.T, conn *gorm.DB, shopName string, lat, lng float64) (*models.User, *models.VendorProfile) {
	t.Helper()
	user, profile := seedVendor(t, conn, shopName, true)
	profile.Lat = &lat
	profile.Lng = &lng
	require.NoError(t, conn.Save(profile).Error)
	return user, profile
}

func TestSearchVendorsWithinRadius(t *testing.T) {
	conn := setupGeoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	callerLat, callerLng := 40.0, -75.0
	seedVendorAt(t, conn, "Corner Greens", 40.0, -75.0)
	seedVendorAt(t, conn, "Mill Creek Farm", 40.2, -75.0)
	seedVendorAt(t, conn, "Upstate Orchard", 41.0, -75.0)
	seedVendor(t, conn, "No Pin Shop", true)

	rows, total, err := repo.SearchVendors(ctx, VendorSearchParams{
		Lat:  &callerLat,
		Lng:  &callerLng,
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	require.Equal(t, "Corner Greens", rows[0].ShopName)
	require.Equal(t, "Mill Creek Farm", rows[1].ShopName)

	require.NotNil(t, rows[0].DistanceKM)
	require.InDelta(t, 0, *rows[0].DistanceKM, 0.5)
	require.NotNil(t, rows[1].DistanceKM)
	require.InDelta(t, geo.DistanceKM(callerLat, callerLng, 40.2, -75.0), *rows[1].DistanceKM, 0.5)
}

func TestSearchVendorsCustomRadius(t *testing.T) {
	conn := setupGeoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	callerLat, callerLng := 40.0, -75.0
	seedVendorAt(t, conn, "Corner Greens", 40.0, -75.0)
	seedVendorAt(t, conn, "Mill Creek Farm", 40.2, -75.0)

	rows, total, err := repo.SearchVendors(ctx, VendorSearchParams{
		Lat:      &callerLat,
		Lng:      &callerLng,
		RadiusKM: 10,
		Page:     pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	require.Equal(t, "Corner Greens", rows[0].ShopName)
}

func TestSearchProductsDistanceSort(t *testing.T) {
	conn := setupGeoTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	category := seedCategory(t, conn, "Produce", "produce")
	nearUser, _ := seedVendorAt(t, conn, "Corner Greens", 40.0, -75.0)
	farUser, _ := seedVendorAt(t, conn, "Mill Creek Farm", 40.5, -75.0)
	noPinUser, _ := seedVendor(t, conn, "No Pin Shop", true)

	seedProduct(t, conn, nearUser.ID, category.ID, "Kale Bunch", "3.50", 10)
	seedProduct(t, conn, farUser.ID, category.ID, "Apple Crate", "12.00", 5)
	seedProduct(t, conn, noPinUser.ID, category.ID, "Mystery Box", "9.99", 1)

	callerLat, callerLng := 40.0, -75.0
	rows, total, err := repo.SearchProducts(ctx, ProductSearchParams{
		Sort: SortDistance,
		Lat:  &callerLat,
		Lng:  &callerLng,
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, rows, 2)

	require.Equal(t, "Kale Bunch", rows[0].Name)
	require.Equal(t, "Apple Crate", rows[1].Name)
	require.NotNil(t, rows[0].DistanceKM)
	require.NotNil(t, rows[1].DistanceKM)
	require.Less(t, *rows[0].DistanceKM, *rows[1].DistanceKM)
}

func TestServiceSearchVendorsGeo(t *testing.T) {
	conn := setupGeoTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	callerLat, callerLng := 40.0, -75.0
	seedVendorAt(t, conn, "Corner Greens", 40.0, -75.0)
	seedVendorAt(t, conn, "Mill Creek Farm", 40.2, -75.0)

	result, err := svc.SearchVendors(ctx, VendorSearchParams{
		Lat:  &callerLat,
		Lng:  &callerLng,
		Page: pagination.Params{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, result.Vendors, 2)
	require.Equal(t, "Corner Greens", result.Vendors[0].ShopName)
	require.NotNil(t, result.Vendors[0].DistanceKM)
	require.Equal(t, int64(2), result.Page.Total)
}
