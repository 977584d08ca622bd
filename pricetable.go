package roasted

import (
	"time"

	"github.com/shopspring/decimal"
)

type pricePoint struct {
	date  time.Time
	base  UnitID
	quote UnitID
	rate  decimal.Decimal
}

// PriceTable is an append-only store of dated, directional unit quotes.
// Records are never mutated or deduplicated; a later quote for the same pair
// is a new record. Lookups are forward-fill: the most recent record on or
// before the requested date wins, and among records sharing that effective
// date the last recorded wins.
type PriceTable struct {
	points []pricePoint
}

func NewPriceTable() *PriceTable {
	return &PriceTable{}
}

// Record inserts a quote: 1 base = rate quote, effective from date onward.
func (pt *PriceTable) Record(date time.Time, base, quote UnitID, rate decimal.Decimal) {
	pt.points = append(pt.points, pricePoint{date: date, base: base, quote: quote, rate: rate})
}

// Lookup returns the rate for the exact ordered pair (base, quote) with the
// greatest effective date <= date. There is no implicit inversion and no
// identity rate for base == quote; the evaluator special-cases same-unit
// conversion itself.
func (pt *PriceTable) Lookup(date time.Time, base, quote UnitID) (decimal.Decimal, bool) {
	var best decimal.Decimal
	var bestDate time.Time
	found := false
	for _, p := range pt.points {
		if p.base != base || p.quote != quote || p.date.After(date) {
			continue
		}
		// >= keeps the later record on an effective-date tie
		if !found || !p.date.Before(bestDate) {
			best = p.rate
			bestDate = p.date
			found = true
		}
	}
	return best, found
}

// Len returns the number of recorded quotes.
func (pt *PriceTable) Len() int {
	return len(pt.points)
}
