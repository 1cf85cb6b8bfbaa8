package catalog

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	applyCatalogSchema(t, conn)
	return conn
}

func applyCatalogSchema(t *testing.T, conn *gorm.DB) {
	t.Helper()

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vendor_profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  shop_name TEXT NOT NULL,
  phone TEXT,
  email TEXT,
  description TEXT,
  address TEXT,
  city TEXT,
  state TEXT,
  zip TEXT,
  country TEXT,
  lat REAL,
  lng REAL,
  verified INTEGER NOT NULL DEFAULT 0,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  sku TEXT NOT NULL DEFAULT '',
  description TEXT,
  price NUMERIC NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  reviewer_id TEXT NOT NULL,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT,
  vendor_reply TEXT,
  replied_at DATETIME,
  hidden INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
}

func seedUser(t *testing.T, conn *gorm.DB, name string, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedVendor(t *testing.T, conn *gorm.DB, shopName string, verified bool) (*models.User, *models.VendorProfile) {
	t.Helper()
	user := seedUser(t, conn, shopName, enums.UserRoleVendor)
	profile := &models.VendorProfile{
		ID:       uuid.New(),
		UserID:   user.ID,
		ShopName: shopName,
		Verified: verified,
	}
	require.NoError(t, conn.Create(profile).Error)
	return user, profile
}

func seedCategory(t *testing.T, conn *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{ID: uuid.New(), Name: name, Slug: slug}
	require.NoError(t, conn.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, conn *gorm.DB, vendorUserID, categoryID uuid.UUID, name string, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   vendorUserID,
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		StockQty:   stock,
		Active:     true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedReview(t *testing.T, conn *gorm.DB, reviewerID uuid.UUID, targetType enums.ReviewTarget, targetID uuid.UUID, rating int) *models.Review {
	t.Helper()
	review := &models.Review{
		ID:         uuid.New(),
		ReviewerID: reviewerID,
		TargetType: targetType,
		TargetID:   targetID,
		Rating:     rating,
	}
	require.NoError(t, conn.Create(review).Error)
	return review
}
