package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItemDTO is one line of the cart payload with live product data.
type CartItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	StockQty    int             `json:"stock_qty"`
	ImageURL    *string         `json:"image_url,omitempty"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	VendorName  string          `json:"vendor_name"`
}

// CartDTO is the full cart payload.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []CartItemDTO   `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

func newCartDTO(cartID uuid.UUID, rows []ItemRow) *CartDTO {
	dto := &CartDTO{
		ID:       cartID,
		Items:    make([]CartItemDTO, 0, len(rows)),
		Subtotal: decimal.Zero,
	}
	for _, row := range rows {
		lineTotal := row.Price.Mul(decimal.NewFromInt(int64(row.Quantity)))
		dto.Items = append(dto.Items, CartItemDTO{
			ID:          row.ID,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			Price:       row.Price,
			Quantity:    row.Quantity,
			LineTotal:   lineTotal,
			StockQty:    row.StockQty,
			ImageURL:    row.ImageURL,
			VendorID:    row.VendorID,
			VendorName:  row.VendorName,
		})
		dto.Subtotal = dto.Subtotal.Add(lineTotal)
		dto.ItemCount += row.Quantity
	}
	return dto
}
