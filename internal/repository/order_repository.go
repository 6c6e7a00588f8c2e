package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tranqv/restaurant-pos/internal/model"
)

// BuildOrderFunc assembles the order and its lines once the customer
// row is locked.  It receives the locked customer record, so any
// loyalty computation inside it works on a balance that cannot change
// until the surrounding transaction commits.  Returning an error
// aborts the whole transaction with no side effects.
type BuildOrderFunc func(customer *model.Customer) (*model.Order, []model.OrderItem, error)

// ApplyStatusFunc decides the next status given the current one, read
// under a row lock.  Returning an error aborts the transition.
type ApplyStatusFunc func(current model.OrderStatus) (model.OrderStatus, error)

// StatusChange is the audit record of a successful status transition.
type StatusChange struct {
	OrderID       uint64
	Old           model.OrderStatus
	New           model.OrderStatus
	CustomerPhone string
}

// OrderRepo persists orders and order items.  Creation and status
// transitions each run as a single transaction: the order, its lines
// and the customer loyalty update commit together or not at all, and
// status changes are a locked check-and-set.
type OrderRepo struct {
	db        *sql.DB
	customers *CustomerRepo
}

// NewOrderRepo returns a new OrderRepo bound to the given database and
// customer repository.
func NewOrderRepo(db *sql.DB, customers *CustomerRepo) *OrderRepo {
	return &OrderRepo{db: db, customers: customers}
}

// CreateOrder runs the atomic order creation unit.  It locks the
// customer row, invokes build to produce the order and lines from the
// locked loyalty balance, inserts the order with all its items, applies
// the loyalty delta, and commits.  Any failure along the way rolls
// everything back: no partial order, no partial lines, no point
// mutation.
func (r *OrderRepo) CreateOrder(ctx context.Context, phone string, paymentMethodID uint64, build BuildOrderFunc) (*model.Order, []model.OrderItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	customer, err := r.customers.LockByPhoneTx(ctx, tx, phone)
	if err != nil {
		return nil, nil, err
	}

	order, items, err := build(customer)
	if err != nil {
		return nil, nil, err
	}

	const insertOrder = `INSERT INTO orders
		(customer_phone, payment_method_id, total_amount, points_earned, points_used, points_discount, final_amount, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insertOrder,
		phone, paymentMethodID,
		order.TotalAmount, order.PointsEarned, order.PointsUsed, order.PointsDiscount, order.FinalAmount,
		string(order.Status),
	)
	if err != nil {
		return nil, nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, err
	}
	order.ID = uint64(id)
	order.CustomerPhone = phone

	// Read back the creation timestamp set by the database.
	if err := tx.QueryRowContext(ctx, `SELECT order_date FROM orders WHERE id = ?`, order.ID).Scan(&order.OrderDate); err != nil {
		return nil, nil, err
	}

	if err := r.createItemsBulkTx(ctx, tx, order.ID, items); err != nil {
		return nil, nil, err
	}

	deltaPoints := order.PointsEarned - order.PointsUsed
	if err := r.customers.ApplyLoyaltyDeltaTx(ctx, tx, phone, deltaPoints, order.FinalAmount); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true

	for i := range items {
		items[i].OrderID = order.ID
	}
	return order, items, nil
}

// createItemsBulkTx inserts all order lines in a single statement.
func (r *OrderRepo) createItemsBulkTx(ctx context.Context, tx *sql.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, quantity, price, size, product_note) VALUES `
	args := make([]any, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, orderID, it.ProductID, it.Quantity, it.Price, it.Size, it.Note)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// TransitionStatus applies a status change as an atomic check-and-set.
// The current status is read FOR UPDATE, apply validates the move, and
// the update commits in the same transaction, so two concurrent
// transitions for one order cannot both succeed from the same stale
// state.
func (r *OrderRepo) TransitionStatus(ctx context.Context, orderID uint64, apply ApplyStatusFunc) (*StatusChange, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `SELECT status, customer_phone FROM orders WHERE id = ? FOR UPDATE`
	var current, phone string
	err = tx.QueryRowContext(ctx, q, orderID).Scan(&current, &phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	next, err := apply(model.OrderStatus(current))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(next), orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &StatusChange{
		OrderID:       orderID,
		Old:           model.OrderStatus(current),
		New:           next,
		CustomerPhone: phone,
	}, nil
}

const orderColumns = `o.id, o.customer_phone, o.order_date, o.total_amount, o.points_earned,
	o.points_used, o.points_discount, o.final_amount, pm.name, o.status`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var status string
	if err := row.Scan(&o.ID, &o.CustomerPhone, &o.OrderDate, &o.TotalAmount, &o.PointsEarned,
		&o.PointsUsed, &o.PointsDiscount, &o.FinalAmount, &o.PaymentMethod, &status); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	return &o, nil
}

// GetByID returns a single order with its payment method name, or
// ErrOrderNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + `
		FROM orders o
		JOIN payment_methods pm ON pm.id = o.payment_method_id
		WHERE o.id = ?`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// OrderFilter narrows List results.  Empty fields match everything.
type OrderFilter struct {
	CustomerPhone string
	Status        string
	PaymentMethod string
}

// List returns orders matching the filter, newest first.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	q := `SELECT ` + orderColumns + `
		FROM orders o
		JOIN payment_methods pm ON pm.id = o.payment_method_id
		WHERE 1=1`
	args := make([]any, 0, 3)
	if f.CustomerPhone != "" {
		q += ` AND o.customer_phone = ?`
		args = append(args, f.CustomerPhone)
	}
	if f.Status != "" {
		q += ` AND o.status = ?`
		args = append(args, f.Status)
	}
	if f.PaymentMethod != "" {
		q += ` AND pm.name = ?`
		args = append(args, f.PaymentMethod)
	}
	q += ` ORDER BY o.order_date DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListItems returns the lines of an order with product names resolved.
// An empty line note falls back to the product's default note.
func (r *OrderRepo) ListItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	const q = `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, oi.size,
			COALESCE(NULLIF(oi.product_note, ''), p.note, '')
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Size, &it.Note); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
