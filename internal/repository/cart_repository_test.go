package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

func TestCartIncrement_BoundedByLiveStock(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t)
	productID := createTestProduct(t, "500", 2)
	lineID := addTestCartLine(t, userID, productID, 1)

	if err := repo.Increment(ctx, lineID); err != nil {
		t.Fatalf("Increment within stock failed: %v", err)
	}

	// Quantity now equals stock; the next increment must hit the bound.
	if err := repo.Increment(ctx, lineID); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("Expected ErrOutOfStock, got %v", err)
	}

	line, err := repo.FindByID(ctx, lineID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if line.Quantity != 2 {
		t.Errorf("Expected quantity to stay at 2, got %d", line.Quantity)
	}
}

func TestCartIncrement_UnknownLine(t *testing.T) {
	repo := NewCartRepository(testDB)

	if err := repo.Increment(context.Background(), uuid.New()); !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("Expected ErrCartLineNotFound, got %v", err)
	}
}

func TestCartDecrement_RefusesBelowOne(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t)
	productID := createTestProduct(t, "500", 5)
	lineID := addTestCartLine(t, userID, productID, 2)

	if err := repo.Decrement(ctx, lineID); err != nil {
		t.Fatalf("Decrement from 2 failed: %v", err)
	}
	if err := repo.Decrement(ctx, lineID); !errors.Is(err, ErrMinimumQuantity) {
		t.Fatalf("Expected ErrMinimumQuantity, got %v", err)
	}

	line, err := repo.FindByID(ctx, lineID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if line.Quantity != 1 {
		t.Errorf("Expected quantity 1, got %d", line.Quantity)
	}
}

func TestCartListByUser_ResolvesProducts(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t)
	productID := createTestProduct(t, "1,39,900", 5)
	addTestCartLine(t, userID, productID, 3)

	lines, err := repo.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected one line, got %d", len(lines))
	}
	if lines[0].Product == nil || lines[0].Product.Price != "1,39,900" {
		t.Errorf("Expected the product join to carry the price, got %+v", lines[0].Product)
	}
}

func TestCartCreate_DuplicateProductRejected(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t)
	productID := createTestProduct(t, "500", 5)

	now := time.Now()
	line := &domain.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, line); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := *line
	dup.ID = uuid.New()
	if err := repo.Create(ctx, &dup); err == nil {
		t.Fatal("Expected the (user_id, product_id) unique constraint to reject a second line")
	}
}

func TestCartDelete(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()
	userID := createTestUser(t)
	productID := createTestProduct(t, "500", 5)
	lineID := addTestCartLine(t, userID, productID, 1)

	if err := repo.Delete(ctx, lineID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, lineID); !errors.Is(err, ErrCartLineNotFound) {
		t.Errorf("Expected ErrCartLineNotFound after delete, got %v", err)
	}
}
