// Package repository implements data access over MySQL.  This file
// defines the sentinel errors shared by the repositories.  Handlers
// and the order service use errors.Is against these values to decide
// which HTTP status to return, keeping SQL details out of the upper
// layers.
package repository

import "errors"

// ErrCustomerNotFound is returned when no customer exists for the
// given phone number.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrOrderNotFound is returned when no order exists for the given id.
var ErrOrderNotFound = errors.New("order not found")

// ErrProductNotFound is returned when no product exists for the given
// id.
var ErrProductNotFound = errors.New("product not found")

// ErrPaymentMethodNotFound is returned when the named payment method
// is not configured.
var ErrPaymentMethodNotFound = errors.New("payment method not found")

// ErrTableNotFound is returned when no table exists for the given id.
var ErrTableNotFound = errors.New("table not found")

// ErrTableOccupied is returned when a customer is assigned to a table
// that already has an occupant.
var ErrTableOccupied = errors.New("table already occupied")

// ErrNotSeated is returned when removing a customer from a table they
// are not seated at.
var ErrNotSeated = errors.New("customer is not seated at this table")

// ErrDuplicate is returned when an insert violates a unique
// constraint, such as creating a customer with an existing phone.
var ErrDuplicate = errors.New("record already exists")
