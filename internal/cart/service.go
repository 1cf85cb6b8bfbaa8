package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
	pkgerrors "github.com/nearmarket/nearmarket-backend/pkg/errors"
)

// Service exposes the customer cart operations.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartDTO, error)
	UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type productReader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     *Repository
	products productReader
}

// NewService constructs the cart service.
func NewService(repo *Repository, products productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{repo: repo, products: products}, nil
}

// GetCart returns the cart, creating an empty one on first access.
func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	return s.buildCart(ctx, cart.ID)
}

// AddItem upserts the product into the cart. Re-adding sums quantities, and
// the cumulative quantity is gated against live stock.
func (s *service) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	cart, err := s.repo.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, product.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}

	cumulative := quantity
	if existing != nil {
		cumulative += existing.Quantity
	}
	if cumulative > product.StockQty {
		return nil, insufficientStock(product.Name, product.StockQty)
	}

	if existing != nil {
		if err := s.repo.UpdateItemQuantity(ctx, existing.ID, cumulative); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
		}
	} else {
		if _, err := s.repo.CreateItem(ctx, &models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart item")
		}
	}

	return s.buildCart(ctx, cart.ID)
}

// UpdateItem overwrites the line quantity, still bounded by live stock.
func (s *service) UpdateItem(ctx context.Context, customerID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.findOwnedItem(ctx, itemID, customerID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindActiveByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if quantity > product.StockQty {
		return nil, insufficientStock(product.Name, product.StockQty)
	}

	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
	}
	return s.buildCart(ctx, item.CartID)
}

// RemoveItem deletes the line after re-validating ownership.
func (s *service) RemoveItem(ctx context.Context, customerID, itemID uuid.UUID) (*CartDTO, error) {
	item, err := s.findOwnedItem(ctx, itemID, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	return s.buildCart(ctx, item.CartID)
}

// Clear removes every item. A missing cart is treated as already clear.
func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

func (s *service) findOwnedItem(ctx context.Context, itemID, customerID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindItemForCustomer(ctx, itemID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}
	return item, nil
}

func (s *service) buildCart(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	rows, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart items")
	}
	return newCartDTO(cartID, rows), nil
}

func insufficientStock(productName string, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s", productName)).
		WithDetails(map[string]any{"product": productName, "available": available})
}
