package model

// Table is a physical table in the restaurant.  The schema allows many
// customer associations per table, but the assignment path enforces at
// most one occupant at a time.
type Table struct {
	ID   uint64 // tables.id
	Name string // tables.name
}

// TableOccupant is a customer currently seated at a table.
type TableOccupant struct {
	Name  string  `json:"name"`
	Phone string  `json:"phone"`
	Email *string `json:"email,omitempty"`
}
