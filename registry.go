package roasted

import (
	"time"
)

type accountWindow struct {
	opened time.Time
	closed *time.Time
	unit   UnitID
}

// Registry tracks each account's lifecycle window and operating unit. An
// account is unopened until its open statement's date, active from then
// until its close date, and permanently closed after that.
type Registry struct {
	symbols *Symbols
	windows map[AccountID]*accountWindow
}

func NewRegistry(symbols *Symbols) *Registry {
	return &Registry{
		symbols: symbols,
		windows: make(map[AccountID]*accountWindow),
	}
}

// Open starts an account's active window at the given date. unit is the
// account's operating unit (NoUnit when none was declared).
func (r *Registry) Open(account AccountID, at time.Time, unit UnitID) error {
	if _, ok := r.windows[account]; ok {
		return &AccountError{Date: at, Account: r.symbols.AccountName(account), Reason: "is already open"}
	}
	r.windows[account] = &accountWindow{opened: at, unit: unit}
	return nil
}

// Close ends an account's active window. Closing an unopened or already
// closed account is an error; closed accounts never reopen.
func (r *Registry) Close(account AccountID, at time.Time) error {
	w, ok := r.windows[account]
	if !ok {
		return &AccountError{Date: at, Account: r.symbols.AccountName(account), Reason: "was never opened"}
	}
	if w.closed != nil {
		return &AccountError{Date: at, Account: r.symbols.AccountName(account), Reason: "is already closed"}
	}
	if at.Before(w.opened) {
		return &AccountError{Date: at, Account: r.symbols.AccountName(account), Reason: "cannot close before open"}
	}
	w.closed = &at
	return nil
}

// IsActive reports whether the account accepts postings at the given date:
// open date inclusive, close date exclusive.
func (r *Registry) IsActive(account AccountID, at time.Time) bool {
	w, ok := r.windows[account]
	if !ok {
		return false
	}
	if at.Before(w.opened) {
		return false
	}
	if w.closed != nil && !at.Before(*w.closed) {
		return false
	}
	return true
}

// InactiveReason describes why IsActive is false at the given date.
func (r *Registry) InactiveReason(account AccountID, at time.Time) string {
	w, ok := r.windows[account]
	switch {
	case !ok:
		return "was never opened"
	case at.Before(w.opened):
		return "is not yet open"
	default:
		return "is closed"
	}
}

// OperatingUnit returns the unit declared on the account's open statement.
func (r *Registry) OperatingUnit(account AccountID) (UnitID, bool) {
	w, ok := r.windows[account]
	if !ok || w.unit == NoUnit {
		return NoUnit, false
	}
	return w.unit, true
}
