package roasted

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ResultKind classifies the outcome of evaluating one dated statement.
type ResultKind uint8

const (
	ResultOk ResultKind = iota
	ResultBalancing
	ResultConversion
	ResultAmbiguousElision
	ResultAssertion
	ResultAccount
	ResultDuplicatePad
)

func (k ResultKind) String() string {
	switch k {
	case ResultOk:
		return "Ok"
	case ResultBalancing:
		return "BalancingError"
	case ResultConversion:
		return "ConversionError"
	case ResultAmbiguousElision:
		return "AmbiguousElisionError"
	case ResultAssertion:
		return "BalanceAssertionError"
	case ResultAccount:
		return "AccountError"
	case ResultDuplicatePad:
		return "DuplicatePadError"
	}
	return fmt.Sprintf("ResultKind(%d)", k)
}

// Result is the per-statement evaluation outcome. A non-Ok result records
// why the statement could not be applied; evaluation still continues with
// the following statements.
type Result struct {
	Statement Statement
	Kind      ResultKind
	Err       error
}

func kindOf(err error) ResultKind {
	switch err.(type) {
	case nil:
		return ResultOk
	case *BalancingError:
		return ResultBalancing
	case *ConversionError:
		return ResultConversion
	case *AmbiguousElisionError:
		return ResultAmbiguousElision
	case *BalanceAssertionError:
		return ResultAssertion
	case *DuplicatePadError:
		return ResultDuplicatePad
	default:
		return ResultAccount
	}
}

// EvalOption configures an Evaluator.
type EvalOption func(*Evaluator)

// WithTolerance sets the maximum absolute difference a balance assertion
// accepts. The default is exact.
func WithTolerance(t decimal.Decimal) EvalOption {
	return func(e *Evaluator) { e.tolerance = t }
}

// WithPlugin registers a plugin to observe every evaluated statement.
func WithPlugin(p Plugin) EvalOption {
	return func(e *Evaluator) { e.plugins = append(e.plugins, p) }
}

// Evaluator folds a Journal's statements, in chronological order, into a
// LedgerState. Evaluators are stateless across runs; evaluating the same
// Journal twice yields identical states.
type Evaluator struct {
	tolerance decimal.Decimal
	plugins   []Plugin
}

func NewEvaluator(opts ...EvalOption) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LedgerState is the evaluation fold state: running balances per account and
// unit, the price table, the account registry, pads not yet consumed by an
// assertion, and every applied transaction in application order.
type LedgerState struct {
	Symbols         *Symbols
	Balances        map[AccountID]map[UnitID]decimal.Decimal
	Prices          *PriceTable
	Registry        *Registry
	OutstandingPads map[AccountID]*Pad
	Synthetic       []*Transaction
	Transactions    []*Transaction
}

func newLedgerState(symbols *Symbols) *LedgerState {
	return &LedgerState{
		Symbols:         symbols,
		Balances:        make(map[AccountID]map[UnitID]decimal.Decimal),
		Prices:          NewPriceTable(),
		Registry:        NewRegistry(symbols),
		OutstandingPads: make(map[AccountID]*Pad),
	}
}

// Balance returns the running balance of an account in one unit, by name.
// Unknown names read as zero.
func (s *LedgerState) Balance(account, unit string) decimal.Decimal {
	aid, aok := s.Symbols.LookupAccount(account)
	uid, uok := s.Symbols.LookupUnit(unit)
	if !aok || !uok {
		return decimal.Zero
	}
	return s.balanceOf(aid, uid)
}

func (s *LedgerState) balanceOf(account AccountID, unit UnitID) decimal.Decimal {
	if m := s.Balances[account]; m != nil {
		return m[unit]
	}
	return decimal.Zero
}

func (s *LedgerState) addAmount(account AccountID, unit UnitID, v decimal.Decimal) {
	m := s.Balances[account]
	if m == nil {
		m = make(map[UnitID]decimal.Decimal)
		s.Balances[account] = m
	}
	m[unit] = m[unit].Add(v)
}

// convert translates v from one unit to another using the price table as of
// date. A direct quote multiplies; failing that, the reverse quote divides.
func (s *LedgerState) convert(date time.Time, v decimal.Decimal, from, to UnitID) (decimal.Decimal, bool) {
	if from == to {
		return v, true
	}
	if rate, ok := s.Prices.Lookup(date, from, to); ok {
		return v.Mul(rate), true
	}
	if rate, ok := s.Prices.Lookup(date, to, from); ok && !rate.IsZero() {
		return v.Div(rate), true
	}
	return decimal.Zero, false
}

// SortedStatements returns the journal's statements sorted chronologically,
// preserving textual order among statements sharing a date. Dateless unit
// declarations sort before everything dated.
func SortedStatements(j *Journal) []Statement {
	sorted := slices.Clone(j.Statements)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].When().Before(sorted[b].When())
	})
	return sorted
}

// Evaluate folds the journal into a fresh LedgerState and returns it with
// one Result per dated statement, in evaluation order. The journal itself is
// never mutated.
func (e *Evaluator) Evaluate(j *Journal) (*LedgerState, []Result) {
	state := newLedgerState(j.Symbols)
	var results []Result
	for _, s := range SortedStatements(j) {
		if _, ok := s.(*UnitDecl); ok {
			continue
		}
		err := e.step(state, s)
		res := Result{Statement: s, Kind: kindOf(err), Err: err}
		results = append(results, res)
		for _, pl := range e.plugins {
			pl.Observe(s, res, state)
		}
	}
	return state, results
}

func (e *Evaluator) step(state *LedgerState, s Statement) error {
	switch st := s.(type) {
	case *Custom, *Commodity:
		return nil
	case *Price:
		state.Prices.Record(st.Date, st.Base, st.Quote, st.Rate)
		return nil
	case *Open:
		return positioned(state.Registry.Open(st.Account, st.Date, st.Unit), st.Pos)
	case *Close:
		return positioned(state.Registry.Close(st.Account, st.Date), st.Pos)
	case *Pad:
		return e.evalPad(state, st)
	case *Balance:
		return e.evalBalance(state, st)
	case *Transaction:
		return e.evalTransaction(state, st)
	}
	return nil
}

func positioned(err error, pos Position) error {
	if ae, ok := err.(*AccountError); ok {
		ae.Pos = pos
	}
	return err
}

func (e *Evaluator) evalTransaction(state *LedgerState, t *Transaction) error {
	if t.State == StateExcluded {
		return nil
	}

	for _, p := range t.Postings {
		if !state.Registry.IsActive(p.Account, t.Date) {
			return &AccountError{
				Pos:     t.Pos,
				Date:    t.Date,
				Account: state.Symbols.AccountName(p.Account),
				Reason:  state.Registry.InactiveReason(p.Account, t.Date),
			}
		}
	}

	elided := -1
	for i, p := range t.Postings {
		if p.Amount == nil {
			if elided >= 0 {
				return &AmbiguousElisionError{Pos: t.Pos, Date: t.Date}
			}
			elided = i
		}
	}

	// The settlement unit comes from the first explicit posting; a price
	// annotation moves it to the annotation's quote unit.
	settlement := NoUnit
	for _, p := range t.Postings {
		if p.Amount == nil {
			continue
		}
		if p.Price != nil {
			settlement = p.Price.Unit
		} else {
			settlement = p.Amount.Unit
		}
		break
	}

	sum := decimal.Zero
	for _, p := range t.Postings {
		if p.Amount == nil {
			continue
		}
		var contrib decimal.Decimal
		var unit UnitID
		if p.Price != nil {
			contrib = p.Amount.Nominal.Mul(p.Price.Nominal)
			unit = p.Price.Unit
		} else {
			contrib = p.Amount.Nominal
			unit = p.Amount.Unit
		}
		v, ok := state.convert(t.Date, contrib, unit, settlement)
		if !ok {
			return &ConversionError{
				Pos:  t.Pos,
				Date: t.Date,
				From: state.Symbols.UnitName(unit),
				To:   state.Symbols.UnitName(settlement),
			}
		}
		sum = sum.Add(v)
	}

	applied := t
	if elided >= 0 {
		unit := settlement
		if ou, ok := state.Registry.OperatingUnit(t.Postings[elided].Account); ok {
			unit = ou
		}
		filled, ok := state.convert(t.Date, sum.Neg(), settlement, unit)
		if !ok {
			return &ConversionError{
				Pos:  t.Pos,
				Date: t.Date,
				From: state.Symbols.UnitName(settlement),
				To:   state.Symbols.UnitName(unit),
			}
		}
		applied = t.clone()
		applied.Postings[elided].Amount = &Amount{Nominal: filled, Unit: unit}
	} else if !sum.IsZero() {
		return &BalancingError{Pos: t.Pos, Date: t.Date, Residual: sum, Unit: state.Symbols.UnitName(settlement)}
	}

	for _, p := range applied.Postings {
		state.addAmount(p.Account, p.Amount.Unit, p.Amount.Nominal)
	}
	state.Transactions = append(state.Transactions, applied)
	return nil
}

func (e *Evaluator) evalPad(state *LedgerState, p *Pad) error {
	for _, acct := range [2]AccountID{p.Account, p.Source} {
		if !state.Registry.IsActive(acct, p.Date) {
			return &AccountError{
				Pos:     p.Pos,
				Date:    p.Date,
				Account: state.Symbols.AccountName(acct),
				Reason:  state.Registry.InactiveReason(acct, p.Date),
			}
		}
	}
	if _, ok := state.OutstandingPads[p.Account]; ok {
		return &DuplicatePadError{Pos: p.Pos, Date: p.Date, Account: state.Symbols.AccountName(p.Account)}
	}
	state.OutstandingPads[p.Account] = p
	return nil
}

func (e *Evaluator) evalBalance(state *LedgerState, b *Balance) error {
	name := state.Symbols.AccountName(b.Account)
	if !state.Registry.IsActive(b.Account, b.Date) {
		return &AccountError{
			Pos:     b.Pos,
			Date:    b.Date,
			Account: name,
			Reason:  state.Registry.InactiveReason(b.Account, b.Date),
		}
	}

	// A pending pad dated on or before the assertion absorbs the gap. The
	// pad is consumed even when the gap turns out to be zero.
	if pad, ok := state.OutstandingPads[b.Account]; ok && !pad.Date.After(b.Date) {
		delete(state.OutstandingPads, b.Account)
		diff := b.Amount.Nominal.Sub(state.balanceOf(b.Account, b.Amount.Unit))
		if !diff.IsZero() {
			synth := &Transaction{
				Pos:       pad.Pos,
				Date:      pad.Date,
				State:     StateCleared,
				Title:     fmt.Sprintf("pad %s from %s", name, state.Symbols.AccountName(pad.Source)),
				Synthetic: true,
				Postings: []Posting{
					{Account: pad.Account, Amount: &Amount{Nominal: diff, Unit: b.Amount.Unit}},
					{Account: pad.Source, Amount: &Amount{Nominal: diff.Neg(), Unit: b.Amount.Unit}},
				},
			}
			state.addAmount(pad.Account, b.Amount.Unit, diff)
			state.addAmount(pad.Source, b.Amount.Unit, diff.Neg())
			state.Synthetic = append(state.Synthetic, synth)
			state.Transactions = append(state.Transactions, synth)
		}
	}

	actual := state.balanceOf(b.Account, b.Amount.Unit)
	if actual.Sub(b.Amount.Nominal).Abs().GreaterThan(e.tolerance) {
		return &BalanceAssertionError{
			Pos:      b.Pos,
			Date:     b.Date,
			Account:  name,
			Unit:     state.Symbols.UnitName(b.Amount.Unit),
			Expected: b.Amount.Nominal,
			Actual:   actual,
		}
	}
	return nil
}
