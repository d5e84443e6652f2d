package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/money"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type cartFixture struct {
	store   *memStore
	service CartService
}

func newCartFixture() *cartFixture {
	store := newMemStore()
	svc := NewCartService(&memCartRepo{store: store}, &memProductRepo{store: store})
	return &cartFixture{store: store, service: svc}
}

func (f *cartFixture) lineQuantity(t *testing.T, userID, productID uuid.UUID) int {
	t.Helper()
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, line := range f.store.carts[userID] {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

func TestCartAdd_FirstAddCreatesLineWithQuantityOne(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Galaxy S24", "1,39,900", 5)

	if err := f.service.Add(ctx, userID, productID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if got := f.lineQuantity(t, userID, productID); got != 1 {
		t.Errorf("Expected quantity 1, got %d", got)
	}
}

func TestCartAdd_RepeatAddIncrements(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Galaxy S24", "1,39,900", 5)

	for i := 0; i < 3; i++ {
		if err := f.service.Add(ctx, userID, productID); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}
	if got := f.lineQuantity(t, userID, productID); got != 3 {
		t.Errorf("Expected quantity 3, got %d", got)
	}
	if f.store.cartLen(userID) != 1 {
		t.Errorf("Repeat adds must not create extra lines, got %d", f.store.cartLen(userID))
	}
}

func TestCartAdd_OutOfStockRejected(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Sold Out", "999", 0)

	err := f.service.Add(ctx, userID, productID)
	if !errors.Is(err, repository.ErrOutOfStock) {
		t.Fatalf("Expected ErrOutOfStock, got %v", err)
	}
	if f.store.cartLen(userID) != 0 {
		t.Error("Out-of-stock add must not create a line")
	}
}

func TestCartAdd_UnknownProductRejected(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")

	err := f.service.Add(ctx, userID, uuid.New())
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestCartAdd_MalformedPriceRejected(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Broken", "12a,99", 5)

	err := f.service.Add(ctx, userID, productID)
	if !errors.Is(err, money.ErrInvalidPrice) {
		t.Fatalf("Expected ErrInvalidPrice, got %v", err)
	}
	if f.store.cartLen(userID) != 0 {
		t.Error("Malformed price must not enter the cart")
	}
}

func TestCartIncrement_BoundedByStock(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Scarce", "999", 2)
	lineID := f.store.addCartLine(userID, productID, 2)

	err := f.service.Increment(ctx, lineID)
	if !errors.Is(err, repository.ErrOutOfStock) {
		t.Fatalf("Expected ErrOutOfStock at the stock bound, got %v", err)
	}
	if got := f.lineQuantity(t, userID, productID); got != 2 {
		t.Errorf("Quantity must stay at the bound, got %d", got)
	}
}

func TestCartDecrement_StopsAtOne(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Galaxy S24", "1,39,900", 5)
	lineID := f.store.addCartLine(userID, productID, 1)

	err := f.service.Decrement(ctx, lineID)
	if !errors.Is(err, repository.ErrMinimumQuantity) {
		t.Fatalf("Expected ErrMinimumQuantity, got %v", err)
	}
	if got := f.lineQuantity(t, userID, productID); got != 1 {
		t.Errorf("Quantity must stay at 1, got %d", got)
	}
	if f.store.cartLen(userID) != 1 {
		t.Error("Decrement at 1 must not remove the line")
	}
}

func TestCartSnapshot_ComputesTotals(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	phone := f.store.addProduct("Galaxy S24", "1,39,900", 5)
	keyboard := f.store.addProduct("Keyboard", "2,499", 10)
	f.store.addCartLine(userID, phone, 2)
	f.store.addCartLine(userID, keyboard, 1)

	snapshot, err := f.service.Snapshot(ctx, userID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snapshot.TotalQuantity != 3 {
		t.Errorf("Expected total quantity 3, got %d", snapshot.TotalQuantity)
	}
	if got := snapshot.SubTotal.String(); got != "282299" {
		t.Errorf("Expected subtotal 282299, got %s", got)
	}
}

func TestCartSnapshot_FailsOnMalformedPrice(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	userID := f.store.addUser("buyer@example.com")
	productID := f.store.addProduct("Broken", "not-a-price", 5)
	f.store.addCartLine(userID, productID, 1)

	_, err := f.service.Snapshot(ctx, userID)
	if !errors.Is(err, money.ErrInvalidPrice) {
		t.Fatalf("Expected ErrInvalidPrice instead of a shrunken subtotal, got %v", err)
	}
}

// Feature: storefront, Property: a line's quantity always stays within
// 1..stock no matter the order of increments and decrements.
func TestProperty_QuantityStaysWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("quantity bounded by 1..stock", prop.ForAll(
		func(stock int, ops []bool) bool {
			f := newCartFixture()
			ctx := context.Background()
			userID := f.store.addUser("buyer@example.com")
			productID := f.store.addProduct("Widget", "500", stock)
			lineID := f.store.addCartLine(userID, productID, 1)

			for _, inc := range ops {
				if inc {
					_ = f.service.Increment(ctx, lineID)
				} else {
					_ = f.service.Decrement(ctx, lineID)
				}
				q := f.lineQuantity(t, userID, productID)
				if q < 1 || q > stock {
					t.Logf("FAIL: quantity %d escaped bounds 1..%d", q, stock)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
