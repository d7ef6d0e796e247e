// Package pricing computes the all-time average price of a product.
//
// Two equivalent paths exist: Average recomputes from the full history, and
// Stats/Mean derive the same value from a running sum and count so an append
// costs O(1). Both round to AverageScale decimal places.
package pricing

import (
	"github.com/shopspring/decimal"

	"pricewatch/internal/model"
)

// AverageScale is the number of decimal places kept for averages.
const AverageScale = 8

// Average returns the arithmetic mean of every price in history, or 0 when empty.
func Average(history []model.PriceEntry) decimal.Decimal {
	return StatsOf(history).Average()
}

// Mean returns sum/count rounded to AverageScale, or 0 when count is not positive.
func Mean(sum decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(count), AverageScale)
}

// Cents converts price to minor units, rounding anything finer than
// model.PriceScale half away from zero.
func Cents(price decimal.Decimal) int64 {
	return price.Shift(model.PriceScale).Round(0).IntPart()
}

// Stats is a running sum and count of prices.
type Stats struct {
	Sum   decimal.Decimal
	Count int64
}

// StatsOf folds history into Stats.
func StatsOf(history []model.PriceEntry) Stats {
	var s Stats
	for _, e := range history {
		s = s.Add(e.Price)
	}
	return s
}

// Add returns s with price appended.
func (s Stats) Add(price decimal.Decimal) Stats {
	return Stats{Sum: s.Sum.Add(price), Count: s.Count + 1}
}

// Average returns the mean of the accumulated prices.
func (s Stats) Average() decimal.Decimal {
	return Mean(s.Sum, s.Count)
}

// Latest returns the most recent entry in history accepted by match,
// ordered by RecordedAt then Position. ok is false when nothing matches.
func Latest(history []model.PriceEntry, match func(model.PriceEntry) bool) (latest model.PriceEntry, ok bool) {
	for _, e := range history {
		if !match(e) {
			continue
		}
		if !ok || e.RecordedAt.After(latest.RecordedAt) ||
			(e.RecordedAt.Equal(latest.RecordedAt) && e.Position > latest.Position) {
			latest, ok = e, true
		}
	}
	return latest, ok
}
