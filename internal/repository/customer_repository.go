package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tranqv/restaurant-pos/internal/model"
)

// CustomerRepo provides access to the customers table.  The loyalty
// columns (points, total_spent) are only ever written through the
// ...Tx methods so that every mutation happens inside the order
// creation transaction under a row lock.
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo returns a new CustomerRepo bound to the given database.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

const customerColumns = "phone, name, email, address, points, total_spent, is_member, created_at"

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	var email, address sql.NullString
	if err := row.Scan(&c.Phone, &c.Name, &email, &address, &c.Points, &c.TotalSpent, &c.IsMember, &c.CreatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		e := email.String
		c.Email = &e
	}
	if address.Valid {
		a := address.String
		c.Address = &a
	}
	return &c, nil
}

// GetByPhone returns the customer with the given phone number, or
// ErrCustomerNotFound when no such customer exists.
func (r *CustomerRepo) GetByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE phone = ?`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, q, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LockByPhoneTx reads the customer row FOR UPDATE inside the given
// transaction.  The returned loyalty balance stays stable until the
// transaction commits, so concurrent orders for the same customer
// serialize on this lock instead of racing on a stale balance.
func (r *CustomerRepo) LockByPhoneTx(ctx context.Context, tx *sql.Tx, phone string) (*model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE phone = ? FOR UPDATE`
	c, err := scanCustomer(tx.QueryRowContext(ctx, q, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyLoyaltyDeltaTx applies a relative loyalty update inside the
// given transaction: points moves by deltaPoints (earned minus used)
// and total_spent grows by deltaSpent.  Relative updates keep N
// concurrent orders equivalent to N sequential ones.
func (r *CustomerRepo) ApplyLoyaltyDeltaTx(ctx context.Context, tx *sql.Tx, phone string, deltaPoints, deltaSpent int64) error {
	const q = `UPDATE customers SET points = points + ?, total_spent = total_spent + ? WHERE phone = ?`
	res, err := tx.ExecContext(ctx, q, deltaPoints, deltaSpent, phone)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

// Create inserts a new customer.  A duplicate phone number yields
// ErrDuplicate.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	const q = `INSERT INTO customers (phone, name, email, address) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, c.Phone, c.Name, c.Email, c.Address)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns all customers ordered by creation time descending.
func (r *CustomerRepo) List(ctx context.Context) ([]model.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
