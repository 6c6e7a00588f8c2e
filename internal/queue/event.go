// Package queue defines the event payloads pushed to live displays and
// mirrored over the message broker.
package queue

// TableRef annotates an event with the table the customer currently
// occupies, if any.
type TableRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// OrderCreatedEvent is published on the order_updates topic whenever an
// order is created.  It carries the full order summary so kitchen
// screens can render it without querying the primary database.
type OrderCreatedEvent struct {
	Type           string    `json:"type"` // always "order_created"
	OrderID        uint64    `json:"order_id"`
	Status         string    `json:"status"`
	PaymentMethod  string    `json:"payment_method"`
	OrderDate      string    `json:"order_date"` // ISO-8601 / RFC 3339
	TotalAmount    int64     `json:"total_amount"`
	PointsEarned   int64     `json:"points_earned"`
	PointsUsed     int64     `json:"points_used"`
	PointsDiscount int64     `json:"points_discount"`
	FinalAmount    int64     `json:"final_amount"`
	CustomerPhone  string    `json:"customer_phone"`
	Table          *TableRef `json:"table"` // null when the customer is not seated
}

// OrderStatusEvent is published on the order_status topic after every
// successful status transition.
type OrderStatusEvent struct {
	OrderID       uint64 `json:"order_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	CustomerPhone string `json:"customer_phone"`
	Message       string `json:"message"`
}

// Table occupancy actions carried by TableUpdateEvent.
const (
	ActionCustomerAssigned = "customer_assigned"
	ActionCustomerRemoved  = "customer_removed"
)

// TableUpdateEvent is published on the table_updates topic when a
// customer is assigned to or removed from a table.
type TableUpdateEvent struct {
	Action   string        `json:"action"`
	TableID  uint64        `json:"table_id"`
	Customer EventCustomer `json:"customer"`
}

// EventCustomer identifies the customer involved in a table update.
type EventCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
