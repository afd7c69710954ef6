package domain

import "time"

type OrderCreatedEvent struct {
	OrderID   string     `json:"order_id"`
	Customer  string     `json:"customer"`
	Email     string     `json:"email,omitempty"`
	Items     []LineItem `json:"items"`
	Total     int64      `json:"total"`
	Timestamp time.Time  `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	OrderID   string      `json:"order_id"`
	Email     string      `json:"email,omitempty"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Timestamp time.Time   `json:"timestamp"`
}
