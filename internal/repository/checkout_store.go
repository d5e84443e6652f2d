package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// CheckoutTx is the set of operations a checkout performs atomically: lock
// the cart, create the order, debit stock, clear the cart. Either every step
// commits or none of them does.
type CheckoutTx interface {
	// LockCart loads and row-locks the user's cart lines so that concurrent
	// checkouts for the same user serialize; the loser observes an empty cart.
	LockCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error)

	// InsertOrder persists the order and its item snapshots. A payment_info
	// collision returns ErrDuplicatePayment via the unique index, never a
	// second row.
	InsertOrder(ctx context.Context, order *domain.Order) error

	// DecrementStock atomically moves quantity units from stock to sold,
	// only while the remaining stock stays non-negative. Returns
	// ErrInsufficientStock when the predicate fails and ErrProductNotFound
	// when the product no longer resolves.
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error

	// ClearCart deletes every cart line for the user, not only ordered ones.
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

// CheckoutStore runs a checkout function inside a single database
// transaction.
type CheckoutStore interface {
	RunCheckout(ctx context.Context, fn func(CheckoutTx) error) error
}

type checkoutStore struct {
	db *sql.DB
}

// NewCheckoutStore creates a CheckoutStore over a database handle
func NewCheckoutStore(db *sql.DB) CheckoutStore {
	return &checkoutStore{db: db}
}

func (s *checkoutStore) RunCheckout(ctx context.Context, fn func(CheckoutTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkout transaction: %w", err)
	}

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("checkout rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return nil
}

type checkoutTx struct {
	tx *sql.Tx
}

func (t *checkoutTx) LockCart(ctx context.Context, userID uuid.UUID) ([]*domain.CartLine, error) {
	query := cartLineSelect + `
		WHERE c.user_id = $1
		ORDER BY c.created_at
		FOR UPDATE OF c
	`

	rows, err := t.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart: %w", err)
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

func (t *checkoutTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, method, status, phone, address, sub_total, payment_info, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var paymentInfo sql.NullString
	if order.PaymentInfo != "" {
		paymentInfo = sql.NullString{String: order.PaymentInfo, Valid: true}
	}
	var paidAt sql.NullTime
	if order.PaidAt != nil {
		paidAt = sql.NullTime{Time: *order.PaidAt, Valid: true}
	}

	_, err := t.tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.Method,
		order.Status,
		order.Phone,
		order.Address,
		order.SubTotal,
		paymentInfo,
		paidAt,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_payment_info_key") {
			return ErrDuplicatePayment
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err := t.tx.ExecContext(ctx, itemQuery, item.ID, item.OrderID, item.ProductID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, sold = sold + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := t.tx.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		if err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product existence: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}

	return nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether an error is a Postgres unique constraint
// violation on the named constraint (SQLSTATE 23505).
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
