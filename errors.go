package roasted

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fatal errors abort the run before evaluation: malformed syntax, builder
// semantic violations, broken includes. Per-statement errors are recorded
// against a single statement's Result and evaluation continues.

// SyntaxError reports input that does not match the grammar, with the set of
// tokens that would have been accepted at that position.
type SyntaxError struct {
	Pos      Position
	Expected []string
	Got      string
}

func (e *SyntaxError) Error() string {
	got := e.Got
	if got == "" {
		got = "end of line"
	}
	return fmt.Sprintf("%s: expected %s, got %q", e.Pos, strings.Join(e.Expected, " or "), got)
}

// SemanticError reports a statement that is grammatical but invalid, such as
// a calendar-impossible date or a non-positive price rate.
type SemanticError struct {
	Pos Position
	Msg string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// DuplicateOpenError reports a second open statement for an account.
type DuplicateOpenError struct {
	Pos     Position
	Prev    Position
	Account string
}

func (e *DuplicateOpenError) Error() string {
	return fmt.Sprintf("%s: account %s is already opened at %s", e.Pos, e.Account, e.Prev)
}

// UnknownUnitError reports a unit referenced before any declaration, price
// or transaction mentioned it.
type UnknownUnitError struct {
	Pos  Position
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("%s: unknown unit %s", e.Pos, e.Unit)
}

// IncludeError reports a missing or unreadable include, located at the
// include line of the including file.
type IncludeError struct {
	Pos  Position
	Path string
	Err  error
}

func (e *IncludeError) Error() string {
	return fmt.Sprintf("%s: unable to include file(%s): %v", e.Pos, e.Path, e.Err)
}

func (e *IncludeError) Unwrap() error { return e.Err }

// IncludeCycleError reports a file that transitively includes itself.
type IncludeCycleError struct {
	Pos  Position
	Path string
}

func (e *IncludeCycleError) Error() string {
	return fmt.Sprintf("%s: include cycle through %s", e.Pos, e.Path)
}

// AccountError reports an account lifecycle violation: posting or asserting
// outside the account's active window, or an invalid open/close.
type AccountError struct {
	Pos     Position
	Date    time.Time
	Account string
	Reason  string
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%s: %s: account %s %s", e.Pos, e.Date.Format(dateLayout), e.Account, e.Reason)
}

// BalancingError reports a fully-explicit transaction whose postings do not
// sum to zero in the settlement unit.
type BalancingError struct {
	Pos      Position
	Date     time.Time
	Residual decimal.Decimal
	Unit     string
}

func (e *BalancingError) Error() string {
	return fmt.Sprintf("%s: %s: transaction does not balance (%s %s left over)",
		e.Pos, e.Date.Format(dateLayout), e.Residual.String(), e.Unit)
}

// ConversionError reports a unit pair with no usable price at the
// statement's date.
type ConversionError struct {
	Pos  Position
	Date time.Time
	From string
	To   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s: no price to convert %s to %s", e.Pos, e.Date.Format(dateLayout), e.From, e.To)
}

// AmbiguousElisionError reports a transaction with more than one elided
// posting amount.
type AmbiguousElisionError struct {
	Pos  Position
	Date time.Time
}

func (e *AmbiguousElisionError) Error() string {
	return fmt.Sprintf("%s: %s: more than one posting amount elided", e.Pos, e.Date.Format(dateLayout))
}

// BalanceAssertionError reports an assertion whose expected amount differs
// from the account's running balance beyond the configured tolerance.
type BalanceAssertionError struct {
	Pos      Position
	Date     time.Time
	Account  string
	Unit     string
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

func (e *BalanceAssertionError) Error() string {
	return fmt.Sprintf("%s: %s: balance of %s is %s %s, expected %s %s",
		e.Pos, e.Date.Format(dateLayout), e.Account,
		e.Actual.String(), e.Unit, e.Expected.String(), e.Unit)
}

// DuplicatePadError reports a pad directive for an account that already has
// an unconsumed pad outstanding.
type DuplicatePadError struct {
	Pos     Position
	Date    time.Time
	Account string
}

func (e *DuplicatePadError) Error() string {
	return fmt.Sprintf("%s: %s: account %s already has an outstanding pad", e.Pos, e.Date.Format(dateLayout), e.Account)
}
