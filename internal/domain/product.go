package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. Price is kept in its stored
// display form (grouping separators included, e.g. "1,39,900") and must be
// normalized through the money package before any arithmetic.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	About     string    `json:"about" db:"about"`
	Category  string    `json:"category" db:"category"`
	Price     string    `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	Sold      int       `json:"sold" db:"sold"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
