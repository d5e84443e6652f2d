package payment

import (
	"context"
	"errors"
)

// ErrSessionInvalid means the provider could not resolve the session id
// (unknown, expired, or a provider-side failure).
var ErrSessionInvalid = errors.New("payment session is invalid")

// LineItem is one cart line expressed in the provider's convention:
// UnitAmount is the per-unit price in minor units (e.g. paise).
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Session is the provider-hosted checkout session. Metadata is the opaque
// channel that carries checkout intent across the external redirect; it must
// be sufficient to reconstruct the order at confirmation time.
type Session struct {
	ID       string
	URL      string
	Metadata map[string]string
}

// Gateway is the narrow payment-provider contract the checkout flow consumes.
// RetrieveSession is idempotent: safe to call any number of times for the
// same id.
type Gateway interface {
	CreateSession(ctx context.Context, items []LineItem, metadata map[string]string) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
