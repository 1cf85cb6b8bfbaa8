package orders

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

func setupOrdersTestDB(t *testing.T) *gorm.DB {
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
  stock_qty INTEGER NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
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
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
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

func seedVendorUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	owner := &models.User{
		ID:           uuid.New(),
		Name:         name,
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
	return owner
}

func seedProduct(t *testing.T, conn *gorm.DB, vendorUserID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		VendorID:   vendorUserID,
		CategoryID: uuid.New(),
		Name:       name,
		Price:      decimal.RequireFromString(price),
		StockQty:   stock,
		Active:     true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedCartWithItem(t *testing.T, conn *gorm.DB, customerID uuid.UUID, product *models.Product, quantity int) *models.Cart {
	t.Helper()
	theCart := &models.Cart{ID: uuid.New(), CustomerID: customerID}
	require.NoError(t, conn.Create(theCart).Error)
	require.NoError(t, conn.Create(&models.CartItem{
		ID:        uuid.New(),
		CartID:    theCart.ID,
		ProductID: product.ID,
		Quantity:  quantity,
	}).Error)
	return theCart
}
