package roasted

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestWriteStatementCanonical(t *testing.T) {
	src := `unit USD
2021-01-01 commodity JPY
2021-01-01 open Assets:Cash USD
2021-01-01 open Equity:Opening
2021-01-02 price USD 100 JPY
2021-01-03 pad Assets:Cash Equity:Opening
2021-01-04 balance Assets:Cash 0 USD
2021-01-05 custom "budget" "say \"hi\""
2021-12-31 close Assets:Cash
`
	j := parseString(t, src)
	var b strings.Builder
	for _, s := range j.Statements {
		assert.NoError(t, WriteStatement(&b, s, j.Symbols, 80))
	}
	assert.Equal(t, src, b.String())
}

func TestWriteTransactionAlignment(t *testing.T) {
	j := parseString(t, `2021-01-15 * "Acme Corp" "Paycheck"
    Assets:Checking           1000.25 USD
    Income:Salary
`)
	var b strings.Builder
	assert.NoError(t, WriteStatement(&b, j.Statements[0], j.Symbols, 40))
	assert.Equal(t, `2021-01-15 * "Acme Corp" "Paycheck"
    Assets:Checking          1000.25 USD
    Income:Salary
`, b.String())
}

func TestWriteTransactionWithAnnotation(t *testing.T) {
	j := parseString(t, `2021-01-15 ! "Buy"
    Assets:Brokerage 2 VTI @ 150.5 USD
    Assets:Checking -301 USD
`)
	var b strings.Builder
	assert.NoError(t, WriteStatement(&b, j.Statements[0], j.Symbols, 44))
	assert.Equal(t, `2021-01-15 ! "Buy"
    Assets:Brokerage       2 VTI @ 150.5 USD
    Assets:Checking                 -301 USD
`, b.String())
}

func TestCanonicalOutputReparses(t *testing.T) {
	j := parseString(t, `unit USD
2021-01-01 open Assets:Cash USD
2021-01-01 open Expenses:Food USD
2021-01-15 * "Groceries"
    Expenses:Food    12.30 USD
    Assets:Cash
`)
	var b strings.Builder
	assert.NoError(t, WriteJournal(&b, j, 80))

	again, err := ParseLedger(strings.NewReader(b.String()))
	assert.NoError(t, err)
	assert.Equal(t, len(j.Statements), len(again.Statements))
}
