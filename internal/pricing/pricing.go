// Package pricing contains the pure price and loyalty calculations for
// order creation.  All amounts are integers in minor currency units and
// every division truncates toward zero, matching the exchange rate the
// loyalty program is built on: 10 points buy a 10 000 unit discount and
// every full 10 000 units spent earns 1 point.
package pricing

import (
	"fmt"

	"github.com/tranqv/restaurant-pos/internal/model"
)

// Points/currency exchange constants.
const (
	// PointUnit is the spend required to earn one loyalty point.
	PointUnit = 10_000
	// RedeemBlock is the number of points that convert as a block;
	// redemption always happens in multiples of this.
	RedeemBlock = 10
	// RedeemBlockValue is the currency discount one block buys.
	RedeemBlockValue = 10_000
	// MinRedeemPoints is the minimum balance required to redeem at all.
	MinRedeemPoints = 10
	// PriceTolerance absorbs client-side rounding: a submitted unit
	// price may differ from the canonical price by at most this much.
	PriceTolerance = 1
)

// Line is one requested order line as submitted by the client.  The
// unit price the client saw is echoed back and verified against the
// catalog rather than trusted.
type Line struct {
	Product  model.Product
	Quantity int
	Size     string
	Price    int64 // client supplied unit price
	Note     string
}

// PricedLine is a line that passed validation, carrying the unit price
// that will be snapshotted onto the order item.
type PricedLine struct {
	Product  model.Product
	Quantity int
	Size     string
	Price    int64
	Note     string
}

// InvalidQuantityError reports a line whose quantity is not positive.
type InvalidQuantityError struct {
	ProductName string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity for product %q", e.ProductName)
}

// InvalidSizeError reports a line naming an unknown size variant.
type InvalidSizeError struct {
	ProductName string
	Size        string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid size %q for product %q", e.Size, e.ProductName)
}

// PriceMismatchError reports a submitted unit price that differs from
// the canonical catalog price by more than PriceTolerance.
type PriceMismatchError struct {
	ProductName string
	Expected    int64
	Got         int64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("invalid price for product %q: got %d, expected %d", e.ProductName, e.Got, e.Expected)
}

// CanonicalPrice returns the catalog unit price for a product at the
// given size: the base price for the default size, or the base price
// times 1.2 truncated toward zero for the large size.
func CanonicalPrice(p model.Product, size string) int64 {
	if size == model.SizeLarge {
		return p.LargePrice()
	}
	return p.Price
}

// PriceLines validates every submitted line against the catalog and
// returns the priced lines together with the order total.  The first
// invalid line rejects the whole order: a non-positive quantity yields
// an InvalidQuantityError, an unknown size an InvalidSizeError, and a
// unit price off by more than PriceTolerance a PriceMismatchError.  The client price is kept
// (not the canonical one) so the snapshot matches what the customer
// confirmed, consistent with the ±1 tolerance.
func PriceLines(lines []Line) ([]PricedLine, int64, error) {
	priced := make([]PricedLine, 0, len(lines))
	var total int64
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, 0, &InvalidQuantityError{ProductName: ln.Product.Name}
		}
		if !model.ValidSize(ln.Size) {
			return nil, 0, &InvalidSizeError{ProductName: ln.Product.Name, Size: ln.Size}
		}
		expected := CanonicalPrice(ln.Product, ln.Size)
		if diff := expected - ln.Price; diff > PriceTolerance || diff < -PriceTolerance {
			return nil, 0, &PriceMismatchError{ProductName: ln.Product.Name, Expected: expected, Got: ln.Price}
		}
		total += ln.Price * int64(ln.Quantity)
		priced = append(priced, PricedLine{
			Product:  ln.Product,
			Quantity: ln.Quantity,
			Size:     ln.Size,
			Price:    ln.Price,
			Note:     ln.Note,
		})
	}
	return priced, total, nil
}

// Loyalty is the outcome of applying the loyalty rules to an order
// total for a given customer balance.
type Loyalty struct {
	PointsEarned   int64
	PointsUsed     int64
	PointsDiscount int64
	FinalAmount    int64
}

// ApplyLoyalty computes earned/used points and the final amount for an
// order.  Points earn at one per full PointUnit of the total.  When
// redeem is requested and the customer holds at least MinRedeemPoints,
// points are spent in blocks of RedeemBlock up to the order's ceiling
// requirement; the discount never drives the final amount below zero.
//
// The ceiling here is intentionally the documented formula from the
// original loyalty program: rounding the total up to the next PointUnit
// before converting to points allows one extra block to be redeemed
// when the total sits exactly on a PointUnit boundary shifted by the
// price tolerance.  Callers must not "correct" it.
func ApplyLoyalty(total, customerPoints int64, redeem bool) Loyalty {
	l := Loyalty{
		PointsEarned: total / PointUnit,
		FinalAmount:  total,
	}
	if !redeem || customerPoints < MinRedeemPoints {
		return l
	}
	usable := customerPoints / RedeemBlock * RedeemBlock
	maxRedeemable := (total + PointUnit - 1) / PointUnit * RedeemBlock
	l.PointsUsed = min(usable, maxRedeemable)
	l.PointsDiscount = l.PointsUsed / RedeemBlock * RedeemBlockValue
	l.FinalAmount = max(total-l.PointsDiscount, 0)
	return l
}
