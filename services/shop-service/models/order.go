package models

import "time"

const (
	OrderStatusPending = "pending"

	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// CheckoutRequest is the billing, payment and shipping form. Card fields are
// only checked for credit payments and are never persisted.
type CheckoutRequest struct {
	FullName       string `json:"full_name" label:"Full name" validate:"required"`
	Email          string `json:"email" label:"Email" validate:"required,email"`
	Address        string `json:"address" label:"Address" validate:"required"`
	City           string `json:"city" label:"City" validate:"required"`
	PostalCode     string `json:"postal_code" label:"Postal code" validate:"required"`
	Country        string `json:"country" label:"Country" validate:"required"`
	PaymentMethod  string `json:"payment_method" label:"Payment method" validate:"required,oneof=credit paypal"`
	CardNumber     string `json:"card_number" label:"Card number" validate:"required_if=PaymentMethod credit"`
	ExpiryDate     string `json:"expiry_date" label:"Expiry date" validate:"required_if=PaymentMethod credit"`
	CVV            string `json:"cvv" label:"CVV" validate:"required_if=PaymentMethod credit"`
	ShippingMethod string `json:"shipping_method" label:"Shipping method" validate:"required,oneof=standard express"`
}

// ShippingAddress is "address, city, postal code, country".
func (r CheckoutRequest) ShippingAddress() string {
	return r.Address + ", " + r.City + ", " + r.PostalCode + ", " + r.Country
}

// Order is immutable once written apart from NotificationStatus.
type Order struct {
	ID                 string     `json:"id" dynamodbav:"id" bson:"_id,omitempty"`
	UserID             string     `json:"user_id,omitempty" dynamodbav:"user_id,omitempty" bson:"user_id,omitempty"`
	FullName           string     `json:"full_name" dynamodbav:"full_name" bson:"full_name"`
	Email              string     `json:"email" dynamodbav:"email" bson:"email"`
	Address            string     `json:"address" dynamodbav:"address" bson:"address"`
	City               string     `json:"city" dynamodbav:"city" bson:"city"`
	PostalCode         string     `json:"postal_code" dynamodbav:"postal_code" bson:"postal_code"`
	Country            string     `json:"country" dynamodbav:"country" bson:"country"`
	PaymentMethod      string     `json:"payment_method" dynamodbav:"payment_method" bson:"payment_method"`
	ShippingMethod     string     `json:"shipping_method" dynamodbav:"shipping_method" bson:"shipping_method"`
	Items              []CartItem `json:"items" dynamodbav:"items" bson:"items"`
	Total              float64    `json:"total" dynamodbav:"total" bson:"total"`
	Status             string     `json:"status" dynamodbav:"status" bson:"status"`
	NotificationStatus string     `json:"notification_status" dynamodbav:"notification_status" bson:"notification_status"`
	CreatedAt          time.Time  `json:"created_at" dynamodbav:"created_at" bson:"created_at"`
}

func (o *Order) ShippingAddress() string {
	return o.Address + ", " + o.City + ", " + o.PostalCode + ", " + o.Country
}

// OrderCreatedEvent is published after a successful checkout.
type OrderCreatedEvent struct {
	Event     string     `json:"event"`
	OrderID   string     `json:"order_id"`
	UserID    string     `json:"user_id,omitempty"`
	Email     string     `json:"email"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
	Timestamp time.Time  `json:"timestamp"`
}

const EventOrderCreated = "order.created"
