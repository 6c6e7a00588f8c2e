package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tranqv/restaurant-pos/internal/model"
)

// ProductRepo provides read access to the product catalog.  The order
// engine only ever reads from it: prices are snapshotted onto order
// items at creation and never looked up again.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = "id, name, price, description, note, is_available, has_large_size"

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var note sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &note, &p.IsAvailable, &p.HasLargeSize); err != nil {
		return nil, err
	}
	if note.Valid {
		n := note.String
		p.Note = &n
	}
	return &p, nil
}

// GetByID returns the product with the given id, or ErrProductNotFound
// when no such product exists.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the whole catalog ordered by id.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// PaymentMethodRepo provides access to the configured payment methods.
type PaymentMethodRepo struct {
	db *sql.DB
}

// NewPaymentMethodRepo returns a new PaymentMethodRepo bound to the
// given database.
func NewPaymentMethodRepo(db *sql.DB) *PaymentMethodRepo { return &PaymentMethodRepo{db: db} }

// GetByName returns the payment method with the given name, or
// ErrPaymentMethodNotFound when the name is not configured.
func (r *PaymentMethodRepo) GetByName(ctx context.Context, name string) (*model.PaymentMethod, error) {
	const q = `SELECT id, name FROM payment_methods WHERE name = ?`
	var m model.PaymentMethod
	err := r.db.QueryRowContext(ctx, q, name).Scan(&m.ID, &m.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListNames returns the names of all configured payment methods, used
// to build the error message for an invalid method.
func (r *PaymentMethodRepo) ListNames(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM payment_methods ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
