package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/internal/cart"
	"github.com/nearmarket/nearmarket-backend/internal/vendors"
	"github.com/nearmarket/nearmarket-backend/pkg/db"
	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

const (
	placeOrderMaxRetries     = 3
	placeOrderInitialBackoff = 25 * time.Millisecond
	orderNumberSuffixLen     = 6
)

// Service exposes order placement and retrieval.
type Service interface {
	CreateOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)

	ListVendorOrders(ctx context.Context, vendorUserID uuid.UUID, statusFilter string, params pagination.Params) (*OrderListResult, error)
	GetVendorOrder(ctx context.Context, vendorUserID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateVendorOrderStatus(ctx context.Context, vendorUserID, orderID uuid.UUID, status string) (*OrderDTO, error)
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	DBClient    *db.Client
	Orders      *Repository
	Carts       *cart.Repository
	Products    *vendors.ProductRepository
	DeliveryFee decimal.Decimal
	Now         func() time.Time
}

type service struct {
	dbClient    *db.Client
	orders      *Repository
	carts       *cart.Repository
	products    *vendors.ProductRepository
	deliveryFee decimal.Decimal
	now         func() time.Time
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DBClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		dbClient:    params.DBClient,
		orders:      params.Orders,
		carts:       params.Carts,
		products:    params.Products,
		deliveryFee: params.DeliveryFee,
		now:         now,
	}, nil
}

// CreateOrder converts the customer's cart into a placed order. The whole
// placement runs in one transaction: stock is decremented with a conditional
// guard so concurrent checkouts can never drive it negative, and the cart is
// cleared only when the order committed. Serialization conflicts are retried.
func (s *service) CreateOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*OrderDTO, error) {
	var placed *models.Order

	backoff := retry.WithMaxRetries(placeOrderMaxRetries, retry.NewExponential(placeOrderInitialBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order, err := s.placeOrder(ctx, customerID, req)
		if err != nil {
			if db.IsSerializationFailure(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		placed = order
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: place order")
	}
	return newOrderDTO(placed), nil
}

func (s *service) placeOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (*models.Order, error) {
	var placed *models.Order

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		theCart, err := carts.FindByCustomer(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return err
		}

		rows, err := carts.ListItems(ctx, theCart.ID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		placedAt := s.now().UTC()
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(rows))

		for _, row := range rows {
			if !row.Active {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("%s is no longer available", row.ProductName))
			}

			decremented, err := products.DecrementStock(ctx, row.ProductID, row.Quantity)
			if err != nil {
				return err
			}
			if !decremented {
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", row.ProductName)).
					WithDetails(map[string]any{"product": row.ProductName})
			}

			lineTotal := row.Price.Mul(decimal.NewFromInt(int64(row.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   row.ProductID,
				ProductName: row.ProductName,
				UnitPrice:   row.Price,
				Quantity:    row.Quantity,
				LineTotal:   lineTotal,
			})
		}

		order := &models.Order{
			OrderNumber:     orderNumber(placedAt, customerID),
			CustomerID:      customerID,
			// Single-vendor checkout: every cart line belongs to the first
			// line's vendor in practice, so the order carries that vendor.
			VendorID:        rows[0].VendorUserID,
			Status:          enums.OrderStatusPending,
			Subtotal:        subtotal,
			DeliveryFee:     s.deliveryFee,
			Total:           subtotal.Add(s.deliveryFee),
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
			PlacedAt:        placedAt,
			Items:           items,
		}
		if _, err := orders.Create(ctx, order); err != nil {
			return err
		}
		if err := carts.ClearItems(ctx, theCart.ID); err != nil {
			return err
		}

		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// ListOrders returns the customer's order history, newest first.
func (s *service) ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.orders.ListByCustomer(ctx, customerID, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return newOrderListResult(rows, params, total), nil
}

// GetOrder loads one of the customer's orders with its item snapshots.
func (s *service) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindForCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return newOrderDTO(order), nil
}

// ListVendorOrders returns orders placed against the vendor, optionally
// filtered by status.
func (s *service) ListVendorOrders(ctx context.Context, vendorUserID uuid.UUID, statusFilter string, params pagination.Params) (*OrderListResult, error) {
	var status enums.OrderStatus
	if statusFilter != "" {
		parsed, err := enums.ParseOrderStatus(statusFilter)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		status = parsed
	}

	params = pagination.Normalize(params)
	rows, total, err := s.orders.ListByVendor(ctx, vendorUserID, status, params.Limit, params.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list vendor orders")
	}
	return newOrderListResult(rows, params, total), nil
}

// GetVendorOrder loads an order only when it was placed against the vendor.
func (s *service) GetVendorOrder(ctx context.Context, vendorUserID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindForVendor(ctx, orderID, vendorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return newOrderDTO(order), nil
}

// UpdateVendorOrderStatus moves the order to the requested status after
// ownership and enum validation.
func (s *service) UpdateVendorOrderStatus(ctx context.Context, vendorUserID, orderID uuid.UUID, status string) (*OrderDTO, error) {
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.orders.FindForVendor(ctx, orderID, vendorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	order.Status = parsed
	return newOrderDTO(order), nil
}

func newOrderListResult(rows []listRow, params pagination.Params, total int64) *OrderListResult {
	result := &OrderListResult{
		Orders: make([]OrderSummaryDTO, 0, len(rows)),
		Page:   pagination.NewPage(params, total),
	}
	for _, row := range rows {
		result.Orders = append(result.Orders, newOrderSummaryDTO(row))
	}
	return result
}

func orderNumber(placedAt time.Time, customerID uuid.UUID) string {
	id := customerID.String()
	return fmt.Sprintf("ORD-%d-%s", placedAt.UnixMilli(), id[len(id)-orderNumberSuffixLen:])
}
