package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers confirmations through the SendGrid API.
type SendGridSender struct {
	apiKey   string
	fromName string
	fromAddr string
}

func NewSendGridSender(apiKey, fromName, fromAddr string) *SendGridSender {
	return &SendGridSender{
		apiKey:   apiKey,
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if s.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if msg.Email == "" {
		return fmt.Errorf("recipient address is empty")
	}

	body := formatSummary(msg.Summary)
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromAddr),
		msg.Subject,
		mail.NewEmail("", msg.Email),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}

	return nil
}

func formatSummary(summary OrderSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s!\n\n", summary.OrderID)
	for _, item := range summary.Items {
		fmt.Fprintf(&b, "  %s x%d @ %s\n", item.Name, item.Quantity, item.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", summary.TotalAmount)
	return b.String()
}
