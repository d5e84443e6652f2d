package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Method is the payment method an order was placed with.
type Method string

const (
	MethodCOD    Method = "cod"
	MethodOnline Method = "online"
)

// Status is the fulfilment status of an order.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// statusTransitions is the allowed progression table. Delivered and cancelled
// are terminal.
var statusTransitions = map[Status][]Status{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := statusTransitions[status]; !ok {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// CanTransition reports whether an order may move from one status to the next.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is a line snapshot captured at checkout time. Name and price are
// copies, insulated from later catalog edits.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	Price     string    `json:"price" db:"price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// Order is immutable once created except for Status (admin-settable through
// the transition table) and the payment confirmation fields.
type Order struct {
	ID       uuid.UUID       `json:"id" db:"id"`
	UserID   uuid.UUID       `json:"user" db:"user_id"`
	Items    []OrderItem     `json:"items" db:"-"`
	Method   Method          `json:"method" db:"method"`
	Status   Status          `json:"status" db:"status"`
	Phone    string          `json:"phone" db:"phone"`
	Address  string          `json:"address" db:"address"`
	SubTotal decimal.Decimal `json:"subTotal" db:"sub_total"`

	// PaymentInfo holds the external payment-session identifier for online
	// orders. It is the idempotency key: at most one order may ever carry a
	// given value, enforced by a unique index.
	PaymentInfo string     `json:"paymentInfo,omitempty" db:"payment_info"`
	PaidAt      *time.Time `json:"paidAt,omitempty" db:"paid_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// User is populated on admin reads that join the account row.
	User *User `json:"user_detail,omitempty" db:"-"`
}
