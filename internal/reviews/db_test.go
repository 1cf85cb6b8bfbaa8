package reviews

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

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

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
  phone TEXT, email TEXT, description TEXT, address TEXT, city TEXT,
  state TEXT, zip TEXT, country TEXT,
  lat REAL, lng REAL,
  verified INTEGER NOT NULL DEFAULT 0,
  verified_at DATETIME,
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
  rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
  comment TEXT,
  vendor_reply TEXT,
  replied_at DATETIME,
  hidden INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  CONSTRAINT idx_reviews_reviewer_target UNIQUE (reviewer_id, target_type, target_id)
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func seedCustomer(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "x",
		Role:         enums.UserRoleCustomer,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedVendor(t *testing.T, conn *gorm.DB, name string) (*models.User, *models.VendorProfile) {
	t.Helper()
	owner := &models.User{
		ID:           uuid.New(),
		Name:         name + " Owner",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "x",
		Role:         enums.UserRoleVendor,
	}
	require.NoError(t, conn.Create(owner).Error)

	profile := &models.VendorProfile{
		ID:       uuid.New(),
		UserID:   owner.ID,
		ShopName: name,
		Verified: true,
	}
	require.NoError(t, conn.Create(profile).Error)
	return owner, profile
}

func seedProduct(t *testing.T, conn *gorm.DB, vendorUserID uuid.UUID, name string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   vendorUserID,
		CategoryID: uuid.New(),
		Name:       name,
		Price:      decimal.RequireFromString("9.99"),
		StockQty:   10,
		Active:     true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}
