package roasted

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestRegistryWindow(t *testing.T) {
	syms := NewSymbols()
	cash := syms.InternAccount("Assets:Cash")
	usd := syms.InternUnit("USD")

	reg := NewRegistry(syms)
	assert.False(t, reg.IsActive(cash, day("2021-01-01")))

	assert.NoError(t, reg.Open(cash, day("2021-01-02"), usd))
	assert.False(t, reg.IsActive(cash, day("2021-01-01")))
	assert.True(t, reg.IsActive(cash, day("2021-01-02")))
	assert.True(t, reg.IsActive(cash, day("2021-06-01")))

	unit, ok := reg.OperatingUnit(cash)
	assert.True(t, ok)
	assert.Equal(t, usd, unit)

	assert.NoError(t, reg.Close(cash, day("2021-06-01")))
	assert.True(t, reg.IsActive(cash, day("2021-05-31")))
	assert.False(t, reg.IsActive(cash, day("2021-06-01")))
}

func TestRegistryErrors(t *testing.T) {
	syms := NewSymbols()
	cash := syms.InternAccount("Assets:Cash")

	reg := NewRegistry(syms)
	assert.Error(t, reg.Close(cash, day("2021-01-01")))

	assert.NoError(t, reg.Open(cash, day("2021-01-02"), NoUnit))
	assert.Error(t, reg.Open(cash, day("2021-03-01"), NoUnit))
	assert.Error(t, reg.Close(cash, day("2021-01-01")))

	_, ok := reg.OperatingUnit(cash)
	assert.False(t, ok)

	assert.NoError(t, reg.Close(cash, day("2021-02-01")))
	assert.Error(t, reg.Close(cash, day("2021-03-01")))
}
