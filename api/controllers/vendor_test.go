package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nearmarket/nearmarket-backend/api/middleware"
	ordersvc "github.com/nearmarket/nearmarket-backend/internal/orders"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

func TestVendorOrderUpdateStatus(t *testing.T) {
	logg := testLogger()
	vendorUserID := uuid.New()
	orderID := uuid.New()

	makeRequest := func(ctx context.Context, param, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/vendor/orders/"+param+"/status", strings.NewReader(body))
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", param)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		VendorOrderUpdateStatus(&stubOrderService{}, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing user", func(t *testing.T) {
		rec := makeRequest(context.Background(), orderID.String(), `{"status":"confirmed"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 when user missing, got %d", rec.Code)
		}
	})

	t.Run("invalid order id", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), vendorUserID.String())
		rec := makeRequest(ctx, "not-a-uuid", `{"status":"confirmed"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("missing status", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), vendorUserID.String())
		rec := makeRequest(ctx, orderID.String(), `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing status, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), vendorUserID.String())
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", orderID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
		req := httptest.NewRequest(http.MethodPut, "/api/vendor/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"confirmed"}`))
		req = req.WithContext(ctx)

		stub := &stubOrderService{}
		rec := httptest.NewRecorder()
		VendorOrderUpdateStatus(stub, logg).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on success, got %d", rec.Code)
		}
		if stub.gotStatus != "confirmed" {
			t.Fatalf("expected status to reach service, got %q", stub.gotStatus)
		}
	})
}

type stubOrderService struct {
	gotStatus string
}

func (s *stubOrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, req ordersvc.CreateOrderRequest) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ordersvc.OrderListResult, error) {
	panic("unimplemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, customerID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrderService) ListVendorOrders(ctx context.Context, vendorUserID uuid.UUID, statusFilter string, params pagination.Params) (*ordersvc.OrderListResult, error) {
	panic("unimplemented")
}

func (s *stubOrderService) GetVendorOrder(ctx context.Context, vendorUserID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (s *stubOrderService) UpdateVendorOrderStatus(ctx context.Context, vendorUserID, orderID uuid.UUID, status string) (*ordersvc.OrderDTO, error) {
	s.gotStatus = status
	return &ordersvc.OrderDTO{ID: orderID}, nil
}
