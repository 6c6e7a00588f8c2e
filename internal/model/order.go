package model

import "time"

// Order records a single purchase transaction made by a customer.
// It aggregates one or more order items created in the same
// transaction and tracks the loyalty figures computed at creation
// time together with the current lifecycle status.
//
// Fields:
//  ID             – primary key identifier.
//  CustomerPhone  – phone number of the customer who placed the order.
//  OrderDate      – creation timestamp (UTC).
//  TotalAmount    – sum of all line totals before any discount.
//  PointsEarned   – loyalty points granted for this order.
//  PointsUsed     – loyalty points redeemed against this order.
//  PointsDiscount – currency discount obtained from redeemed points.
//  FinalAmount    – amount actually charged; always TotalAmount − PointsDiscount, never below zero.
//  PaymentMethod  – name of the payment method chosen at creation.
//  Status         – lifecycle state (see OrderStatus).
type Order struct {
	ID             uint64      // orders.id
	CustomerPhone  string      // orders.customer_phone
	OrderDate      time.Time   // orders.order_date
	TotalAmount    int64       // orders.total_amount
	PointsEarned   int64       // orders.points_earned
	PointsUsed     int64       // orders.points_used
	PointsDiscount int64       // orders.points_discount
	FinalAmount    int64       // orders.final_amount
	PaymentMethod  string      // payment_methods.name, resolved on read
	Status         OrderStatus // orders.status
}

// OrderItem is one product line within an order.  The price is
// snapshotted when the order is created and never changes afterwards,
// regardless of later catalog price updates.
//
// Fields:
//  ID          – primary key identifier.
//  OrderID     – order that exclusively owns this line.
//  ProductID   – product being purchased.
//  ProductName – product name, resolved on read for display.
//  Quantity    – number of units, always > 0.
//  Price       – unit price charged, snapshotted at creation.
//  Size        – size variant ("default" or "large").
//  Note        – optional per-line note; falls back to the product note.
type OrderItem struct {
	ID          uint64 // order_items.id
	OrderID     uint64 // order_items.order_id
	ProductID   uint64 // order_items.product_id
	ProductName string // products.name, resolved on read
	Quantity    int    // order_items.quantity
	Price       int64  // order_items.price
	Size        string // order_items.size
	Note        string // order_items.product_note
}

// Size variants accepted on an order item.  Large multiplies the base
// product price by 1.2, truncated toward zero.
const (
	SizeDefault = "default"
	SizeLarge   = "large"
)

// ValidSize reports whether s is a known size variant.
func ValidSize(s string) bool { return s == SizeDefault || s == SizeLarge }
