package roasted

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// UnitID is an interned handle for a currency or commodity code.
type UnitID int32

// AccountID is an interned handle for a full account path.
type AccountID int32

// NoUnit marks an absent unit, such as an open statement that declares
// no operating unit.
const NoUnit UnitID = -1

// Position is a location in a ledger source file.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Symbols interns unit codes and account paths to small integer handles so
// the evaluator's balancing loop never hashes strings.
type Symbols struct {
	unitIDs   map[string]UnitID
	unitNames []string
	acctIDs   map[string]AccountID
	acctNames []string
}

func NewSymbols() *Symbols {
	return &Symbols{
		unitIDs: make(map[string]UnitID),
		acctIDs: make(map[string]AccountID),
	}
}

// InternUnit returns the handle for a unit code, creating one on first use.
func (s *Symbols) InternUnit(name string) UnitID {
	if id, ok := s.unitIDs[name]; ok {
		return id
	}
	id := UnitID(len(s.unitNames))
	s.unitNames = append(s.unitNames, name)
	s.unitIDs[name] = id
	return id
}

// LookupUnit returns the handle for a unit code if it has been interned.
func (s *Symbols) LookupUnit(name string) (UnitID, bool) {
	id, ok := s.unitIDs[name]
	return id, ok
}

// UnitName returns the code a unit handle was interned from.
func (s *Symbols) UnitName(id UnitID) string {
	if id == NoUnit {
		return ""
	}
	return s.unitNames[id]
}

// Units returns all interned unit codes in interning order.
func (s *Symbols) Units() []string {
	return s.unitNames
}

// InternAccount returns the handle for an account path, creating one on
// first use.
func (s *Symbols) InternAccount(path string) AccountID {
	if id, ok := s.acctIDs[path]; ok {
		return id
	}
	id := AccountID(len(s.acctNames))
	s.acctNames = append(s.acctNames, path)
	s.acctIDs[path] = id
	return id
}

// LookupAccount returns the handle for an account path if it has been interned.
func (s *Symbols) LookupAccount(path string) (AccountID, bool) {
	id, ok := s.acctIDs[path]
	return id, ok
}

// AccountName returns the path an account handle was interned from.
func (s *Symbols) AccountName(id AccountID) string {
	return s.acctNames[id]
}

// Accounts returns all interned account paths in interning order.
func (s *Symbols) Accounts() []string {
	return s.acctNames
}

// Statement is one dated (or, for unit declarations, dateless) entry of a
// ledger file. Concrete types: Custom, Open, Close, Commodity, Price, Pad,
// Balance, Transaction and UnitDecl.
type Statement interface {
	Position() Position
	When() time.Time
	Keyword() string
}

// Amount is an exact decimal quantity of one unit.
type Amount struct {
	Nominal decimal.Decimal
	Unit    UnitID
}

// TxState is the transaction state flag from the header line.
type TxState byte

const (
	StateCleared  TxState = '*'
	StatePending  TxState = '!'
	StateExcluded TxState = '#'
)

// Posting is one account line of a transaction. A nil Amount is an elided
// posting whose amount the evaluator infers. Price is the optional `@`
// per-posting conversion override: one unit of the posting's amount equals
// Price.Nominal of Price.Unit.
type Posting struct {
	Account AccountID
	Amount  *Amount
	Price   *Amount
	Comment string
}

// UnitDecl is the dateless `unit CODE` declaration.
type UnitDecl struct {
	Pos  Position
	Unit UnitID
}

func (u *UnitDecl) Position() Position { return u.Pos }
func (u *UnitDecl) When() time.Time    { return time.Time{} }
func (u *UnitDecl) Keyword() string    { return "unit" }

// Custom carries opaque dated values through to plugins.
type Custom struct {
	Pos    Position
	Date   time.Time
	Values []string
}

func (c *Custom) Position() Position { return c.Pos }
func (c *Custom) When() time.Time    { return c.Date }
func (c *Custom) Keyword() string    { return "custom" }

// Open starts an account's active window. Unit is the account's operating
// unit, or NoUnit when the statement declares none.
type Open struct {
	Pos     Position
	Date    time.Time
	Account AccountID
	Unit    UnitID
}

func (o *Open) Position() Position { return o.Pos }
func (o *Open) When() time.Time    { return o.Date }
func (o *Open) Keyword() string    { return "open" }

// Close ends an account's active window. Closed accounts never reopen.
type Close struct {
	Pos     Position
	Date    time.Time
	Account AccountID
}

func (c *Close) Position() Position { return c.Pos }
func (c *Close) When() time.Time    { return c.Date }
func (c *Close) Keyword() string    { return "close" }

// Commodity is the dated form of a unit declaration.
type Commodity struct {
	Pos  Position
	Date time.Time
	Unit UnitID
}

func (c *Commodity) Position() Position { return c.Pos }
func (c *Commodity) When() time.Time    { return c.Date }
func (c *Commodity) Keyword() string    { return "commodity" }

// Price records that 1 Base = Rate Quote from Date onward.
type Price struct {
	Pos   Position
	Date  time.Time
	Base  UnitID
	Rate  decimal.Decimal
	Quote UnitID
}

func (p *Price) Position() Position { return p.Pos }
func (p *Price) When() time.Time    { return p.Date }
func (p *Price) Keyword() string    { return "price" }

// Pad authorizes a synthetic transfer from Source into Account sized so the
// next balance assertion on Account succeeds.
type Pad struct {
	Pos     Position
	Date    time.Time
	Account AccountID
	Source  AccountID
}

func (p *Pad) Position() Position { return p.Pos }
func (p *Pad) When() time.Time    { return p.Date }
func (p *Pad) Keyword() string    { return "pad" }

// Balance asserts an account's running balance in one unit as of Date.
type Balance struct {
	Pos     Position
	Date    time.Time
	Account AccountID
	Amount  Amount
}

func (b *Balance) Position() Position { return b.Pos }
func (b *Balance) When() time.Time    { return b.Date }
func (b *Balance) Keyword() string    { return "balance" }

// Transaction is a dated header plus two or more postings. Synthetic is set
// on transactions the evaluator inserts itself to resolve a pad directive.
type Transaction struct {
	Pos       Position
	Date      time.Time
	State     TxState
	Payee     string
	Title     string
	Postings  []Posting
	Comments  []string
	Synthetic bool
}

func (t *Transaction) Position() Position { return t.Pos }
func (t *Transaction) When() time.Time    { return t.Date }
func (t *Transaction) Keyword() string    { return "transaction" }

func (t *Transaction) clone() *Transaction {
	cp := *t
	cp.Postings = make([]Posting, len(t.Postings))
	copy(cp.Postings, t.Postings)
	return &cp
}

// Journal is the parsed, flattened statement stream of one entry file and
// everything it includes, in textual order.
type Journal struct {
	Statements []Statement
	Options    map[string]string
	Symbols    *Symbols
}

func newJournal() *Journal {
	return &Journal{
		Options: make(map[string]string),
		Symbols: NewSymbols(),
	}
}
