package model

import "time"

// Customer is a guest identified by phone number.  The phone acts as
// the primary key, mirroring how customers identify themselves at the
// counter.  Points and TotalSpent form the loyalty state and are only
// ever mutated inside the order creation transaction.
//
// Fields:
//  Phone      – primary key; up to 10 digits.
//  Name       – display name.
//  Email      – optional contact email.
//  Address    – optional delivery address.
//  Points     – accumulated loyalty points, never negative.
//  TotalSpent – lifetime spend in currency units.
//  IsMember   – whether the customer joined the membership program.
//  CreatedAt  – creation timestamp.
type Customer struct {
	Phone      string    // customers.phone
	Name       string    // customers.name
	Email      *string   // customers.email (nullable)
	Address    *string   // customers.address (nullable)
	Points     int64     // customers.points
	TotalSpent int64     // customers.total_spent
	IsMember   bool      // customers.is_member
	CreatedAt  time.Time // customers.created_at
}
