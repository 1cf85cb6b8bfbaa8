package admin

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
)

func setupAdminTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  subtotal NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  delivery_address TEXT NOT NULL,
  notes TEXT,
  placed_at DATETIME NOT NULL,
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
  updated_at DATETIME,
  UNIQUE (reviewer_id, target_type, target_id)
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
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

func seedVendorProfile(t *testing.T, conn *gorm.DB, userID uuid.UUID, shopName string, verified bool) *models.VendorProfile {
	t.Helper()
	profile := &models.VendorProfile{
		ID:       uuid.New(),
		UserID:   userID,
		ShopName: shopName,
		Verified: verified,
	}
	require.NoError(t, conn.Create(profile).Error)
	return profile
}

func seedOrder(t *testing.T, conn *gorm.DB, customerID, vendorUserID uuid.UUID, total string, status enums.OrderStatus, placedAt time.Time) *models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("ORD-%d-%s", placedAt.UnixMilli(), uuid.NewString()[:6]),
		CustomerID:      customerID,
		VendorID:        vendorUserID,
		Status:          status,
		Subtotal:        amount,
		DeliveryFee:     decimal.Zero,
		Total:           amount,
		DeliveryAddress: "1 Main St",
		PlacedAt:        placedAt,
	}
	require.NoError(t, conn.Create(order).Error)
	return order
}
