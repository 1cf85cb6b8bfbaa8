package cart

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

func setupCartTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func seedCustomer(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Customer",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()),
		PasswordHash: "x",
		Role:         enums.UserRoleCustomer,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func seedVendorWithProduct(t *testing.T, conn *gorm.DB, name, price string, stock int) (*models.VendorProfile, *models.Product) {
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

	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   owner.ID,
		CategoryID: uuid.New(),
		Name:       name + " Product",
		Price:      decimal.RequireFromString(price),
		StockQty:   stock,
		Active:     true,
	}
	require.NoError(t, conn.Create(product).Error)
	return profile, product
}
