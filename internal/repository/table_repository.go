package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tranqv/restaurant-pos/internal/model"
)

// TableRepo manages tables and their customer associations.  The
// table_customers join table allows many occupants per table at the
// schema level; AssignCustomer is the business path and enforces at
// most one.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// List returns all tables ordered by id.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID returns a single table, or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	var t model.Table
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM tables WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new table and populates its generated id.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO tables (name) VALUES (?)`, t.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Rename updates a table's name, or returns ErrTableNotFound.
func (r *TableRepo) Rename(ctx context.Context, id uint64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tables SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	return nil
}

// Delete removes a table and its customer associations.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM table_customers WHERE table_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Occupants returns the customers currently seated at a table.
func (r *TableRepo) Occupants(ctx context.Context, tableID uint64) ([]model.TableOccupant, error) {
	const q = `SELECT c.name, c.phone, c.email
		FROM table_customers tc
		JOIN customers c ON c.phone = tc.customer_phone
		WHERE tc.table_id = ?
		ORDER BY c.name`
	rows, err := r.db.QueryContext(ctx, q, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TableOccupant, 0)
	for rows.Next() {
		var o model.TableOccupant
		var email sql.NullString
		if err := rows.Scan(&o.Name, &o.Phone, &email); err != nil {
			return nil, err
		}
		if email.Valid {
			e := email.String
			o.Email = &e
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// FindByCustomer returns the table a customer currently occupies, or
// (nil, nil) when they are not seated anywhere.  Used to annotate
// order events; absence is not an error.
func (r *TableRepo) FindByCustomer(ctx context.Context, phone string) (*model.Table, error) {
	const q = `SELECT t.id, t.name
		FROM table_customers tc
		JOIN tables t ON t.id = tc.table_id
		WHERE tc.customer_phone = ?
		ORDER BY t.id
		LIMIT 1`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, phone).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AssignCustomer seats a customer at a table.  The whole move runs in
// one transaction: it verifies the table exists and is empty, removes
// the customer from any tables they previously occupied, and inserts
// the new association.  It returns the ids of the tables the customer
// was removed from so the caller can publish a removal event for each,
// together with the customer record for the event payloads.
func (r *TableRepo) AssignCustomer(ctx context.Context, tableID uint64, phone string) ([]uint64, *model.Customer, error) {
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

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM tables WHERE id = ? FOR UPDATE`, tableID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrTableNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM customers WHERE phone = ?`, phone).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var occupants int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM table_customers WHERE table_id = ?`, tableID).Scan(&occupants); err != nil {
		return nil, nil, err
	}
	if occupants > 0 {
		return nil, nil, ErrTableOccupied
	}

	rows, err := tx.QueryContext(ctx, `SELECT table_id FROM table_customers WHERE customer_phone = ?`, phone)
	if err != nil {
		return nil, nil, err
	}
	var removed []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, err
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if len(removed) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM table_customers WHERE customer_phone = ?`, phone); err != nil {
			return nil, nil, err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO table_customers (table_id, customer_phone) VALUES (?, ?)`, tableID, phone); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	return removed, &model.Customer{Phone: phone, Name: name}, nil
}

// RemoveCustomer unseats a customer from a table.  It returns the
// customer record for the event payload and the occupants remaining at
// the table, or ErrNotSeated when the customer was not at that table.
func (r *TableRepo) RemoveCustomer(ctx context.Context, tableID uint64, phone string) (*model.Customer, []model.TableOccupant, error) {
	if _, err := r.GetByID(ctx, tableID); err != nil {
		return nil, nil, err
	}
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT name FROM customers WHERE phone = ?`, phone).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM table_customers WHERE table_id = ? AND customer_phone = ?`, tableID, phone)
	if err != nil {
		return nil, nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, ErrNotSeated
	}
	remaining, err := r.Occupants(ctx, tableID)
	if err != nil {
		return nil, nil, err
	}
	return &model.Customer{Phone: phone, Name: name}, remaining, nil
}
