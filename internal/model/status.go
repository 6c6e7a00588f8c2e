package model

import (
	"errors"
	"fmt"
)

// OrderStatus is the lifecycle state of an order.  The zero value is
// not a valid status; orders are always created as StatusPending.
type OrderStatus string

// The five order lifecycle states.  DELIVERED and CANCELLED are
// terminal: no transition leaves them.
const (
	StatusPending    OrderStatus = "PENDING"
	StatusApproved   OrderStatus = "APPROVED"
	StatusDelivering OrderStatus = "DELIVERING"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ErrInvalidStatus is returned when a string does not name one of the
// five known order states.
var ErrInvalidStatus = errors.New("invalid order status")

// transitions is the fixed allowed-next table.  An order may only move
// along these edges; everything else is an illegal transition.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusApproved, StatusCancelled},
	StatusApproved:   {StatusDelivering, StatusCancelled},
	StatusDelivering: {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus converts a string into an OrderStatus, returning
// ErrInvalidStatus when the value is not one of the known states.
func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Terminal reports whether no further transition can leave s.
func (s OrderStatus) Terminal() bool { return len(transitions[s]) == 0 }

// CanTransitionTo reports whether moving from s to next is allowed by
// the transition table.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IllegalTransitionError reports an attempted move that is not in the
// allowed-next table for the order's current state.
type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}

// Transition validates a requested move out of s.  It returns the new
// status when the move is legal, ErrInvalidStatus when next is unknown,
// and an IllegalTransitionError otherwise.
func (s OrderStatus) Transition(next OrderStatus) (OrderStatus, error) {
	if _, ok := transitions[next]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, string(next))
	}
	if !s.CanTransitionTo(next) {
		return "", &IllegalTransitionError{From: s, To: next}
	}
	return next, nil
}
