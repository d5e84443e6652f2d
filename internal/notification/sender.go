// Package notification delivers best-effort order confirmations. Delivery is
// decoupled from checkout through a worker: a send failure is logged for
// reconciliation and never fails or rolls back an order.
package notification

import (
	"context"

	"go.uber.org/zap"
)

// OrderSummary is the payload of an order-confirmation message.
type OrderSummary struct {
	OrderID     string
	Items       []ItemSummary
	TotalAmount string
}

// ItemSummary is one snapshot line in a confirmation message.
type ItemSummary struct {
	Name     string
	Price    string
	Quantity int
}

// Message is a queued confirmation delivery.
type Message struct {
	Email   string
	Subject string
	Summary OrderSummary
}

// Sender delivers a single confirmation message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is a development Sender that only logs. Useful when no mail
// provider is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Order confirmation (log only)",
		zap.String("email", msg.Email),
		zap.String("subject", msg.Subject),
		zap.String("order_id", msg.Summary.OrderID),
		zap.Int("items", len(msg.Summary.Items)),
		zap.String("total", msg.Summary.TotalAmount),
	)
	return nil
}
