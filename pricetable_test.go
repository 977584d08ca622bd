package roasted

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPriceTableForwardFill(t *testing.T) {
	syms := NewSymbols()
	usd := syms.InternUnit("USD")
	jpy := syms.InternUnit("JPY")

	pt := NewPriceTable()
	pt.Record(day("2021-01-10"), usd, jpy, decimal.NewFromInt(100))
	pt.Record(day("2021-03-01"), usd, jpy, decimal.NewFromInt(110))

	_, ok := pt.Lookup(day("2021-01-09"), usd, jpy)
	assert.False(t, ok)

	rate, ok := pt.Lookup(day("2021-01-10"), usd, jpy)
	assert.True(t, ok)
	assert.Equal(t, "100", rate.String())

	rate, ok = pt.Lookup(day("2021-02-15"), usd, jpy)
	assert.True(t, ok)
	assert.Equal(t, "100", rate.String())

	rate, ok = pt.Lookup(day("2022-01-01"), usd, jpy)
	assert.True(t, ok)
	assert.Equal(t, "110", rate.String())
}

func TestPriceTableSameDateLastWins(t *testing.T) {
	syms := NewSymbols()
	usd := syms.InternUnit("USD")
	jpy := syms.InternUnit("JPY")

	pt := NewPriceTable()
	pt.Record(day("2021-01-10"), usd, jpy, decimal.NewFromInt(100))
	pt.Record(day("2021-01-10"), usd, jpy, decimal.NewFromInt(105))

	rate, ok := pt.Lookup(day("2021-01-10"), usd, jpy)
	assert.True(t, ok)
	assert.Equal(t, "105", rate.String())
	assert.Equal(t, 2, pt.Len())
}

func TestPriceTableDirectional(t *testing.T) {
	syms := NewSymbols()
	usd := syms.InternUnit("USD")
	jpy := syms.InternUnit("JPY")

	pt := NewPriceTable()
	pt.Record(day("2021-01-10"), usd, jpy, decimal.NewFromInt(100))

	_, ok := pt.Lookup(day("2021-01-10"), jpy, usd)
	assert.False(t, ok)
	_, ok = pt.Lookup(day("2021-01-10"), usd, usd)
	assert.False(t, ok)
}
