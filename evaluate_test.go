package roasted

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func evalString(t *testing.T, src string, opts ...EvalOption) (*LedgerState, []Result) {
	t.Helper()
	j := parseString(t, src)
	return NewEvaluator(opts...).Evaluate(j)
}

func assertAllOk(t *testing.T, results []Result) {
	t.Helper()
	for _, r := range results {
		if r.Kind != ResultOk {
			t.Fatalf("statement at %s: %s: %v", r.Statement.Position(), r.Kind, r.Err)
		}
	}
}

func TestEvaluateSimpleTransaction(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
2021-01-15 * "Acme Corp" "Paycheck"
    Assets:Checking    1000 USD
    Income:Salary      -1000 USD
`)
	assertAllOk(t, results)
	assert.Equal(t, 3, len(results))
	assert.Equal(t, "1000", state.Balance("Assets:Checking", "USD").String())
	assert.Equal(t, "-1000", state.Balance("Income:Salary", "USD").String())
	assert.Equal(t, 1, len(state.Transactions))
}

func TestEvaluateElisionSameUnit(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Food USD
2021-01-15 * "Groceries"
    Expenses:Food      42.50 USD
    Assets:Checking
`)
	assertAllOk(t, results)
	assert.Equal(t, "-42.5", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluateElisionConvertsToOperatingUnit(t *testing.T) {
	state, results := evalString(t, `unit USD
unit JPY
2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Travel JPY
2021-01-02 price USD 100 JPY
2021-01-03 * "Tokyo hotel"
    Assets:Checking    142 USD
    Expenses:Travel
`)
	assertAllOk(t, results)
	assert.Equal(t, "142", state.Balance("Assets:Checking", "USD").String())
	assert.Equal(t, "-14200", state.Balance("Expenses:Travel", "JPY").String())
	assert.Equal(t, "0", state.Balance("Expenses:Travel", "USD").String())
}

func TestEvaluateElisionReverseRate(t *testing.T) {
	// only the USD->JPY quote exists, so filling a USD posting from a JPY
	// settlement goes through the reciprocal
	state, results := evalString(t, `2021-01-01 open Assets:Yen JPY
2021-01-01 open Assets:Checking USD
2021-01-02 price USD 100 JPY
2021-01-03 * "Move cash"
    Assets:Yen        -5000 JPY
    Assets:Checking
`)
	assertAllOk(t, results)
	assert.Equal(t, "50", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluateBalancingError(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Food USD
2021-01-15 * "Off by one"
    Expenses:Food      10 USD
    Assets:Checking    -9 USD
`)
	assert.Equal(t, ResultBalancing, results[2].Kind)
	assert.Contains(t, results[2].Err.Error(), "does not balance")
	// a failed transaction changes nothing
	assert.Equal(t, "0", state.Balance("Assets:Checking", "USD").String())
	assert.Equal(t, 0, len(state.Transactions))
}

func TestEvaluateAmbiguousElision(t *testing.T) {
	_, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Food USD
2021-01-01 open Expenses:Rent USD
2021-01-15 * "Too vague"
    Assets:Checking    -50 USD
    Expenses:Food
    Expenses:Rent
`)
	assert.Equal(t, ResultAmbiguousElision, results[3].Kind)
}

func TestEvaluateConversionError(t *testing.T) {
	_, results := evalString(t, `unit CHF
2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Travel CHF
2021-01-15 * "No quote"
    Assets:Checking    100 USD
    Expenses:Travel
`)
	assert.Equal(t, ResultConversion, results[2].Kind)
	assert.Contains(t, results[2].Err.Error(), "no price to convert USD to CHF")
}

func TestEvaluatePriceAnnotation(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Assets:Brokerage
2021-01-15 * "Buy index fund"
    Assets:Checking     -301 USD
    Assets:Brokerage    2 VTI @ 150.50 USD
`)
	assertAllOk(t, results)
	// balances track the posting's own unit, not the settlement unit
	assert.Equal(t, "2", state.Balance("Assets:Brokerage", "VTI").String())
	assert.Equal(t, "-301", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluateAnnotationOnFirstPostingSetsSettlement(t *testing.T) {
	// the quote unit of the first posting's annotation is the settlement
	// unit, so the elided posting fills in USD
	state, results := evalString(t, `2021-01-01 open Assets:Brokerage
2021-01-01 open Assets:Checking USD
2021-01-15 * "Buy index fund"
    Assets:Brokerage    2 VTI @ 150.50 USD
    Assets:Checking
`)
	assertAllOk(t, results)
	assert.Equal(t, "-301", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluatePadAbsorbsGap(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Equity:Opening USD
2021-01-02 pad Assets:Checking Equity:Opening
2021-01-05 balance Assets:Checking 500 USD
`)
	assertAllOk(t, results)
	assert.Equal(t, "500", state.Balance("Assets:Checking", "USD").String())
	assert.Equal(t, "-500", state.Balance("Equity:Opening", "USD").String())

	assert.Equal(t, 1, len(state.Synthetic))
	synth := state.Synthetic[0]
	assert.True(t, synth.Synthetic)
	assert.Equal(t, day("2021-01-02"), synth.Date)
	assert.Equal(t, 0, len(state.OutstandingPads))
}

func TestEvaluatePadConsumedExactlyOnce(t *testing.T) {
	_, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Equity:Opening USD
2021-01-02 pad Assets:Checking Equity:Opening
2021-01-05 balance Assets:Checking 500 USD
2021-01-06 balance Assets:Checking 900 USD
`)
	// the second assertion has no pad left to lean on
	assert.Equal(t, ResultOk, results[3].Kind)
	assert.Equal(t, ResultAssertion, results[4].Kind)
}

func TestEvaluatePadWithZeroGap(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Equity:Opening USD
2021-01-02 pad Assets:Checking Equity:Opening
2021-01-05 balance Assets:Checking 0 USD
`)
	assertAllOk(t, results)
	// consumed without synthesizing an empty transaction
	assert.Equal(t, 0, len(state.Synthetic))
	assert.Equal(t, 0, len(state.OutstandingPads))
}

func TestEvaluateDuplicatePad(t *testing.T) {
	_, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Equity:Opening USD
2021-01-02 pad Assets:Checking Equity:Opening
2021-01-03 pad Assets:Checking Equity:Opening
`)
	assert.Equal(t, ResultOk, results[2].Kind)
	assert.Equal(t, ResultDuplicatePad, results[3].Kind)
}

func TestEvaluateUnconsumedPadStaysOutstanding(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Equity:Opening USD
2021-01-02 pad Assets:Checking Equity:Opening
`)
	assertAllOk(t, results)
	assert.Equal(t, 1, len(state.OutstandingPads))
}

func TestEvaluateAssertionFailureContinues(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
2021-01-02 balance Assets:Checking 999 USD
2021-01-15 * "Paycheck"
    Assets:Checking    1000 USD
    Income:Salary      -1000 USD
`)
	assert.Equal(t, ResultAssertion, results[2].Kind)
	assert.Equal(t, ResultOk, results[3].Kind)
	assert.Equal(t, "1000", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluateAssertionTolerance(t *testing.T) {
	src := `2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
2021-01-15 * "Paycheck"
    Assets:Checking    100.004 USD
    Income:Salary      -100.004 USD
2021-01-16 balance Assets:Checking 100 USD
`
	_, strict := evalString(t, src)
	assert.Equal(t, ResultAssertion, strict[3].Kind)

	_, loose := evalString(t, src, WithTolerance(decimal.NewFromFloat(0.005)))
	assertAllOk(t, loose)
}

func TestEvaluateAccountWindow(t *testing.T) {
	_, results := evalString(t, `2021-02-01 open Assets:Checking USD
2021-02-01 open Income:Salary USD
2021-01-15 * "Too early"
    Assets:Checking    10 USD
    Income:Salary      -10 USD
`)
	assert.Equal(t, ResultAccount, results[0].Kind)
	assert.Contains(t, results[0].Err.Error(), "not yet open")
	assert.Equal(t, ResultOk, results[1].Kind)
}

func TestEvaluatePostingAfterClose(t *testing.T) {
	_, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
2021-03-01 close Assets:Checking
2021-03-01 * "On close day"
    Assets:Checking    10 USD
    Income:Salary      -10 USD
`)
	// close date is exclusive
	last := results[len(results)-1]
	assert.Equal(t, ResultAccount, last.Kind)
	assert.Contains(t, last.Err.Error(), "is closed")
}

func TestEvaluateExcludedTransaction(t *testing.T) {
	state, results := evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Food USD
2021-01-15 # "Maybe later"
    Expenses:Food      10 USD
    Assets:Checking    -10 USD
`)
	assertAllOk(t, results)
	assert.Equal(t, "0", state.Balance("Assets:Checking", "USD").String())
	assert.Equal(t, 0, len(state.Transactions))
}

func TestEvaluateChronologicalOrder(t *testing.T) {
	// statements may appear out of date order in the file
	state, results := evalString(t, `2021-01-15 * "Paycheck"
    Assets:Checking    1000 USD
    Income:Salary      -1000 USD
2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
`)
	assertAllOk(t, results)
	assert.Equal(t, "1000", state.Balance("Assets:Checking", "USD").String())
}

func TestEvaluateIdempotent(t *testing.T) {
	j := parseString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Expenses:Food USD
2021-01-15 * "Groceries"
    Expenses:Food      42.50 USD
    Assets:Checking
`)
	e := NewEvaluator()
	first, _ := e.Evaluate(j)
	second, _ := e.Evaluate(j)
	assert.Equal(t,
		first.Balance("Assets:Checking", "USD").String(),
		second.Balance("Assets:Checking", "USD").String())

	// the journal's own elided posting is still elided
	trans := j.Statements[2].(*Transaction)
	assert.True(t, trans.Postings[1].Amount == nil)
}

func TestEvaluateResultPerDatedStatement(t *testing.T) {
	j := parseString(t, `unit USD
2021-01-01 open Assets:Checking USD
2021-01-02 custom "note" "hello"
`)
	_, results := NewEvaluator().Evaluate(j)
	// the unit declaration carries no date and gets no result
	assert.Equal(t, 2, len(results))
}

type recordingPlugin struct {
	seen []string
}

func (p *recordingPlugin) Name() string { return "recording" }

func (p *recordingPlugin) Observe(s Statement, r Result, _ *LedgerState) {
	p.seen = append(p.seen, s.Keyword()+":"+r.Kind.String())
}

func TestEvaluatePluginObservesEveryStatement(t *testing.T) {
	plugin := &recordingPlugin{}
	_, _ = evalString(t, `2021-01-01 open Assets:Checking USD
2021-01-01 open Income:Salary USD
2021-01-15 * "Paycheck"
    Assets:Checking    1000 USD
    Income:Salary      -1000 USD
2021-01-16 balance Assets:Checking 999 USD
`, WithPlugin(plugin))
	assert.Equal(t, []string{
		"open:Ok", "open:Ok", "transaction:Ok", "balance:BalanceAssertionError",
	}, plugin.seen)
}

func TestResultKindStrings(t *testing.T) {
	kinds := []ResultKind{
		ResultOk, ResultBalancing, ResultConversion, ResultAmbiguousElision,
		ResultAssertion, ResultAccount, ResultDuplicatePad,
	}
	var names []string
	for _, k := range kinds {
		names = append(names, k.String())
	}
	assert.Equal(t, "Ok BalancingError ConversionError AmbiguousElisionError "+
		"BalanceAssertionError AccountError DuplicatePadError", strings.Join(names, " "))
}
