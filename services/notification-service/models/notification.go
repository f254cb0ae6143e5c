package models

import (
	"time"

	"github.com/yashrajoria/capture-backend/services/notification-service/sender"
)

const (
	ChannelEmail = "email"

	StatusSent   = "sent"
	StatusFailed = "failed"

	TypeOrderConfirmation = "order_confirmation"
)

type NotificationLog struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    string    `json:"order_id" gorm:"index"`
	Recipient  string    `json:"recipient"`
	Type       string    `json:"type"`
	Channel    string    `json:"channel"`
	Status     string    `json:"status" gorm:"index"`
	MessageID  string    `json:"message_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

type NotificationFilter struct {
	OrderID  string
	Status   string
	Page     int
	PageSize int
}

// DeliveryStatus joins an order's notification flag with its logged attempts.
type DeliveryStatus struct {
	OrderID            string           `json:"order_id"`
	NotificationStatus string           `json:"notification_status"`
	Attempts           int64            `json:"attempts"`
	LastAttempt        *NotificationLog `json:"last_attempt,omitempty"`
}

// OutboxMessage is queued by checkout when the synchronous confirmation failed.
type OutboxMessage struct {
	Kind       string                   `json:"kind"`
	OrderID    string                   `json:"order_id"`
	Params     sender.OrderConfirmation `json:"params"`
	EnqueuedAt time.Time                `json:"enqueued_at"`
}
