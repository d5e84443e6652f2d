package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartSnapshot is a read of a user's cart with derived totals. SubTotal is a
// decimal computed from normalized price strings; a price that fails to
// normalize makes the whole read fail rather than silently shrinking the
// total.
type CartSnapshot struct {
	Lines         []*domain.CartLine `json:"cart"`
	TotalQuantity int                `json:"sumofQuantities"`
	SubTotal      decimal.Decimal    `json:"subTotal"`
}

// CartService defines cart business logic. Quantity bounds (1..stock) are
// enforced by atomic conditional updates in the repository; stock is not
// reserved at cart time, only at checkout.
type CartService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, lineID uuid.UUID) error
	Increment(ctx context.Context, lineID uuid.UUID) error
	Decrement(ctx context.Context, lineID uuid.UUID) error
	Snapshot(ctx context.Context, userID uuid.UUID) (*CartSnapshot, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Add puts one unit of a product into the user's cart: a repeat add
// increments the existing line up to the stock bound, a first add creates the
// line with quantity 1.
func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	line, err := s.cartRepo.FindByUserAndProduct(ctx, userID, productID)
	if err == nil {
		return s.cartRepo.Increment(ctx, line.ID)
	}
	if err != repository.ErrCartLineNotFound {
		return fmt.Errorf("failed to look up cart line: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}

	// Malformed prices are rejected here, at mutation time, so checkout
	// never has to silently drop a line from the subtotal.
	if !money.Valid(product.Price) {
		return money.ErrInvalidPrice
	}

	if product.Stock == 0 {
		return repository.ErrOutOfStock
	}

	now := time.Now()
	return s.cartRepo.Create(ctx, &domain.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Remove deletes a cart line unconditionally.
func (s *cartService) Remove(ctx context.Context, lineID uuid.UUID) error {
	return s.cartRepo.Delete(ctx, lineID)
}

// Increment raises a line's quantity by one while it stays within stock.
func (s *cartService) Increment(ctx context.Context, lineID uuid.UUID) error {
	return s.cartRepo.Increment(ctx, lineID)
}

// Decrement lowers a line's quantity by one; at quantity 1 it fails instead
// of removing the line.
func (s *cartService) Decrement(ctx context.Context, lineID uuid.UUID) error {
	return s.cartRepo.Decrement(ctx, lineID)
}

// Snapshot returns the user's cart lines with total quantity and subtotal.
func (s *cartService) Snapshot(ctx context.Context, userID uuid.UUID) (*CartSnapshot, error) {
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshot := &CartSnapshot{
		Lines:    lines,
		SubTotal: decimal.Zero,
	}

	for _, line := range lines {
		snapshot.TotalQuantity += line.Quantity

		price, err := money.Parse(line.Product.Price)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		snapshot.SubTotal = snapshot.SubTotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return snapshot, nil
}
