package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranqv/restaurant-pos/internal/model"
)

func coffee() model.Product {
	return model.Product{ID: 1, Name: "coffee", Price: 50_000, HasLargeSize: true}
}

func TestCanonicalPrice(t *testing.T) {
	p := coffee()
	assert.Equal(t, int64(50_000), CanonicalPrice(p, model.SizeDefault))
	assert.Equal(t, int64(60_000), CanonicalPrice(p, model.SizeLarge))

	// The large multiplier truncates toward zero.
	odd := model.Product{Name: "tea", Price: 33_335}
	assert.Equal(t, int64(40_002), CanonicalPrice(odd, model.SizeLarge))
}

func TestPriceLinesTotals(t *testing.T) {
	priced, total, err := PriceLines([]Line{
		{Product: coffee(), Quantity: 2, Size: model.SizeDefault, Price: 50_000},
		{Product: coffee(), Quantity: 1, Size: model.SizeLarge, Price: 60_000},
	})
	require.NoError(t, err)
	require.Len(t, priced, 2)
	assert.Equal(t, int64(160_000), total)
}

func TestPriceLinesTolerance(t *testing.T) {
	// A unit price off by one in either direction is accepted and the
	// client's figure is the one snapshotted.
	for _, price := range []int64{49_999, 50_001} {
		priced, total, err := PriceLines([]Line{
			{Product: coffee(), Quantity: 1, Size: model.SizeDefault, Price: price},
		})
		require.NoError(t, err)
		assert.Equal(t, price, priced[0].Price)
		assert.Equal(t, price, total)
	}

	_, _, err := PriceLines([]Line{
		{Product: coffee(), Quantity: 1, Size: model.SizeDefault, Price: 50_002},
	})
	var mismatch *PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "coffee", mismatch.ProductName)
	assert.Equal(t, int64(50_000), mismatch.Expected)
	assert.Equal(t, int64(50_002), mismatch.Got)
}

func TestPriceLinesRejectsBadQuantity(t *testing.T) {
	for _, qty := range []int{0, -1} {
		_, _, err := PriceLines([]Line{
			{Product: coffee(), Quantity: qty, Size: model.SizeDefault, Price: 50_000},
		})
		var invalid *InvalidQuantityError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "coffee", invalid.ProductName)
	}
}

func TestPriceLinesRejectsUnknownSize(t *testing.T) {
	_, _, err := PriceLines([]Line{
		{Product: coffee(), Quantity: 1, Size: "xl", Price: 50_000},
	})
	var invalid *InvalidSizeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "xl", invalid.Size)
}

func TestApplyLoyaltyEarnOnly(t *testing.T) {
	l := ApplyLoyalty(100_000, 0, false)
	assert.Equal(t, int64(10), l.PointsEarned)
	assert.Zero(t, l.PointsUsed)
	assert.Zero(t, l.PointsDiscount)
	assert.Equal(t, int64(100_000), l.FinalAmount)

	// Earning truncates: only full units count.
	assert.Equal(t, int64(9), ApplyLoyalty(99_999, 0, false).PointsEarned)
}

func TestApplyLoyaltyRedeem(t *testing.T) {
	l := ApplyLoyalty(100_000, 50, true)
	assert.Equal(t, int64(10), l.PointsEarned)
	assert.Equal(t, int64(50), l.PointsUsed)
	assert.Equal(t, int64(50_000), l.PointsDiscount)
	assert.Equal(t, int64(50_000), l.FinalAmount)
}

func TestApplyLoyaltyBelowMinimumBalance(t *testing.T) {
	// Nine points cannot be redeemed even when requested.
	l := ApplyLoyalty(100_000, 9, true)
	assert.Zero(t, l.PointsUsed)
	assert.Equal(t, int64(100_000), l.FinalAmount)
}

func TestApplyLoyaltyUsableTruncatesToBlocks(t *testing.T) {
	// 57 points redeem as 50; the loose 7 stay on the balance.
	l := ApplyLoyalty(1_000_000, 57, true)
	assert.Equal(t, int64(50), l.PointsUsed)
	assert.Equal(t, int64(50_000), l.PointsDiscount)
}

func TestApplyLoyaltyFloorAtZero(t *testing.T) {
	// A small order with a big balance burns one block and bottoms out
	// at zero rather than going negative.
	l := ApplyLoyalty(5_000, 10, true)
	assert.Zero(t, l.PointsEarned)
	assert.Equal(t, int64(10), l.PointsUsed)
	assert.Equal(t, int64(10_000), l.PointsDiscount)
	assert.Zero(t, l.FinalAmount)
}

func TestApplyLoyaltyRedemptionCeiling(t *testing.T) {
	// On an exact unit boundary one block is redeemable.
	exact := ApplyLoyalty(10_000, 100, true)
	assert.Equal(t, int64(10), exact.PointsUsed)
	assert.Zero(t, exact.FinalAmount)

	// One unit over the boundary the ceiling admits a second block,
	// which is the documented behavior of the loyalty program.
	over := ApplyLoyalty(10_001, 100, true)
	assert.Equal(t, int64(20), over.PointsUsed)
	assert.Equal(t, int64(20_000), over.PointsDiscount)
	assert.Zero(t, over.FinalAmount)
}
