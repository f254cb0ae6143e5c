package sender

import (
	"context"
	"time"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (SendResult, error)
}

// OrderConfirmation is the fixed parameter set of the order confirmation template.
type OrderConfirmation struct {
	ToName          string  `json:"to_name"`
	ToEmail         string  `json:"to_email"`
	ToShop          string  `json:"to_shop"`
	FromName        string  `json:"from_name"`
	OrderID         string  `json:"order_id"`
	OrderDetails    string  `json:"order_details"`
	TotalAmount     float64 `json:"total_amount"`
	ShippingAddress string  `json:"shipping_address"`
}

// ConfirmationSender delivers an order confirmation to the customer.
type ConfirmationSender interface {
	SendOrderConfirmation(ctx context.Context, params OrderConfirmation) (SendResult, error)
}
