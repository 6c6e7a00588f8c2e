package model

// Product is a catalog entry.  The order engine treats the catalog as
// a read-only price source; product management itself lives elsewhere.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Price        – base price in currency units for the default size.
//  Description  – short description for menus.
//  Note         – default preparation note copied onto order lines.
//  IsAvailable  – whether the product can currently be ordered.
//  HasLargeSize – whether a large size variant exists.
type Product struct {
	ID           uint64  // products.id
	Name         string  // products.name
	Price        int64   // products.price
	Description  string  // products.description
	Note         *string // products.note (nullable)
	IsAvailable  bool    // products.is_available
	HasLargeSize bool    // products.has_large_size
}

// LargePrice is the canonical unit price for the large size variant:
// the base price multiplied by 1.2, truncated toward zero.
func (p Product) LargePrice() int64 {
	return int64(float64(p.Price) * 1.2)
}

// PaymentMethod names an accepted way to pay.  Methods are seeded in
// the database and referenced by name when creating orders.
type PaymentMethod struct {
	ID   uint64 // payment_methods.id
	Name string // payment_methods.name
}
