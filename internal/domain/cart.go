package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one (user, product) quantity record prior to checkout.
// At most one line exists per product per user; quantity stays within
// 1..product.stock for as long as the line is persisted.
type CartLine struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Product is populated on reads that join the catalog row.
	Product *Product `json:"product,omitempty" db:"-"`
}
