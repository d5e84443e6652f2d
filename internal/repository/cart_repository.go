package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartLineNotFound = errors.New("cart line not found")
	ErrOutOfStock       = errors.New("product is out of stock")
	ErrMinimumQuantity  = errors.New("cart line is already at minimum quantity")
)

// CartRepository defines the interface for cart data access. Increment and
// Decrement are atomic conditional updates so that the quantity bound
// (1 <= quantity <= product.stock) holds without a read-then-write window.
type CartRepository interface {
	Create(ctx context.Context, line *domain.CartLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CartLine, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartLine, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)
	Increment(ctx context.Context, id uuid.UUID) error
	Decrement(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Create inserts a new cart line using parameterized queries
func (r *cartRepository) Create(ctx context.Context, line *domain.CartLine) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		line.ID,
		line.UserID,
		line.ProductID,
		line.Quantity,
		line.CreatedAt,
		line.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create cart line: %w", err)
	}

	return nil
}

const cartLineSelect = `
	SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
	       p.id, p.title, p.about, p.category, p.price, p.stock, p.sold, p.created_at, p.updated_at
	FROM cart_items c
	JOIN products p ON p.id = c.product_id
`

func scanCartLine(row interface{ Scan(...any) error }) (*domain.CartLine, error) {
	line := &domain.CartLine{Product: &domain.Product{}}
	err := row.Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Quantity,
		&line.CreatedAt,
		&line.UpdatedAt,
		&line.Product.ID,
		&line.Product.Title,
		&line.Product.About,
		&line.Product.Category,
		&line.Product.Price,
		&line.Product.Stock,
		&line.Product.Sold,
		&line.Product.CreatedAt,
		&line.Product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return line, nil
}

// FindByID retrieves a cart line with its product joined
func (r *cartRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CartLine, error) {
	line, err := scanCartLine(r.db.QueryRowContext(ctx, cartLineSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}

	return line, nil
}

// FindByUserAndProduct retrieves the single line a user holds for a product
func (r *cartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*domain.CartLine, error) {
	line, err := scanCartLine(r.db.QueryRowContext(ctx, cartLineSelect+` WHERE c.user_id = $1 AND c.product_id = $2`, userID, productID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartLineNotFound
		}
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}

	return line, nil
}

// ListByUser retrieves all of a user's cart lines with products joined
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, cartLineSelect+` WHERE c.user_id = $1 ORDER BY c.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []*domain.CartLine{}
	for rows.Next() {
		line, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// Increment raises the quantity by one, only while quantity < product stock.
// The stock bound lives in the UPDATE predicate so two concurrent increments
// cannot both slip past a stale read.
func (r *cartRepository) Increment(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE cart_items c
		SET quantity = quantity + 1, updated_at = NOW()
		FROM products p
		WHERE c.id = $1 AND p.id = c.product_id AND c.quantity < p.stock
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing line from one pinned at the stock bound.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrOutOfStock
	}

	return nil
}

// Decrement lowers the quantity by one, only while quantity > 1. Decrement
// never removes the line; removal is explicit.
func (r *cartRepository) Decrement(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE cart_items
		SET quantity = quantity - 1, updated_at = NOW()
		WHERE id = $1 AND quantity > 1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrMinimumQuantity
	}

	return nil
}

// Delete removes a cart line unconditionally
func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartLineNotFound
	}

	return nil
}
