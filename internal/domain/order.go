package domain

import "time"

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

// Order statuses.
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// IsValid checks if the order status is valid.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusOnHold,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusFailed:
		return true
	}
	return false
}

// Order represents a placed order.
type Order struct {
	ID               int64       `json:"id"`
	CustomerID       string      `json:"customer_id"`
	Status           OrderStatus `json:"status"`
	BillingEmail     string      `json:"billing_email"`
	BillingFirstName string      `json:"billing_first_name"`
	Items            []OrderItem `json:"items"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// OrderItem is a line item of an order.
type OrderItem struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// OrderNote records a status transition or other remark on an order.
type OrderNote struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}
