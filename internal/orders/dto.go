package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	"github.com/nearmarket/nearmarket-backend/pkg/enums"
	"github.com/nearmarket/nearmarket-backend/pkg/pagination"
)

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	DeliveryAddress string  `json:"delivery_address" validate:"required,min=5"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// OrderItemDTO is one immutable line of a placed order.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the full order payload with item snapshots.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Total           decimal.Decimal   `json:"total"`
	DeliveryAddress string            `json:"delivery_address"`
	Notes           *string           `json:"notes,omitempty"`
	PlacedAt        time.Time         `json:"placed_at"`
	Items           []OrderItemDTO    `json:"items"`
}

// OrderSummaryDTO is a listing row without item snapshots.
type OrderSummaryDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"item_count"`
	PlacedAt    time.Time         `json:"placed_at"`
}

// OrderListResult pairs a page of summaries with pagination metadata.
type OrderListResult struct {
	Orders []OrderSummaryDTO `json:"orders"`
	Page   pagination.Page   `json:"pagination"`
}

func newOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		Subtotal:        order.Subtotal,
		DeliveryFee:     order.DeliveryFee,
		Total:           order.Total,
		DeliveryAddress: order.DeliveryAddress,
		Notes:           order.Notes,
		PlacedAt:        order.PlacedAt,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return dto
}

func newOrderSummaryDTO(row listRow) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		Status:      row.Status,
		Total:       row.Total,
		ItemCount:   row.ItemCount,
		PlacedAt:    row.PlacedAt,
	}
}
