package roasted

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alfredxing/calc/compute"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var (
	dateRe    = regexp.MustCompile(`^(\d{1,4})-(\d{2})-(\d{2})$`)
	accountRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9-]*(?::[A-Z][A-Za-z0-9-]*)+$`)
	unitRe    = regexp.MustCompile(`^[A-Z]+$`)
	numberRe  = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?$`)
)

// ParseLedgerFile parses a ledger file, resolving includes relative to it,
// and returns the flattened Journal. Syntax errors, builder semantic errors
// and broken includes are fatal.
func ParseLedgerFile(filename string) (*Journal, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	p := newParser()
	ifile, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to open ledger file: %w", err)
	}
	defer ifile.Close()

	p.inProgress[abs] = true
	frag, err := p.parseReader(filename, filepath.Dir(abs), ifile)
	delete(p.inProgress, abs)
	if err != nil {
		return nil, err
	}
	return p.finish(frag)
}

// ParseLedger parses ledger source from a reader. Includes resolve relative
// to the current directory.
func ParseLedger(ledgerReader io.Reader) (*Journal, error) {
	p := newParser()
	frag, err := p.parseReader("", ".", ledgerReader)
	if err != nil {
		return nil, err
	}
	return p.finish(frag)
}

type parser struct {
	symbols    *Symbols
	includes   *cache.Cache
	inProgress map[string]bool
}

// fileFragment is the parse result of one file, cached so a file included
// more than once is only parsed once.
type fileFragment struct {
	statements []Statement
	options    map[string]string
}

func newParser() *parser {
	return &parser{
		symbols:    NewSymbols(),
		includes:   cache.New(cache.NoExpiration, 0),
		inProgress: make(map[string]bool),
	}
}

func (p *parser) finish(frag *fileFragment) (*Journal, error) {
	j := newJournal()
	j.Symbols = p.symbols
	j.Statements = frag.statements
	j.Options = frag.options
	if err := j.validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// parseFile parses an included file, detecting cycles through the set of
// files currently being parsed.
func (p *parser) parseFile(at Position, abs, shown string) (*fileFragment, error) {
	if p.inProgress[abs] {
		return nil, &IncludeCycleError{Pos: at, Path: shown}
	}
	if v, ok := p.includes.Get(abs); ok {
		return v.(*fileFragment), nil
	}
	ifile, err := os.Open(abs)
	if err != nil {
		return nil, &IncludeError{Pos: at, Path: shown, Err: err}
	}
	defer ifile.Close()

	p.inProgress[abs] = true
	frag, err := p.parseReader(shown, filepath.Dir(abs), ifile)
	delete(p.inProgress, abs)
	if err != nil {
		return nil, err
	}
	p.includes.Set(abs, frag, cache.NoExpiration)
	return frag, nil
}

func (p *parser) parseReader(name, baseDir string, r io.Reader) (*fileFragment, error) {
	frag := &fileFragment{options: make(map[string]string)}
	sc := newLineScanner(name, r)

	var comments []string
	sawStatement := false
	for sc.Scan() {
		raw := sc.Text()
		text, comment := splitComment(raw)
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			if comment != "" {
				comments = append(comments, comment)
			}
			continue
		}
		if isIndented(text) {
			return nil, &SyntaxError{
				Pos:      Position{Filename: name, Line: sc.LineNumber(), Column: 1},
				Expected: []string{"statement at column 1"},
				Got:      trimmed,
			}
		}

		cur := newCursor(name, sc.LineNumber(), text)
		switch cur.peekWord() {
		case "include":
			cur.word()
			if sawStatement {
				return nil, &SyntaxError{Pos: cur.pos(), Expected: []string{"include before first statement"}, Got: "include"}
			}
			path, err := cur.quotedString()
			if err != nil {
				return nil, err
			}
			if err := cur.expectEnd(); err != nil {
				return nil, err
			}
			target := path
			if !filepath.IsAbs(target) {
				target = filepath.Join(baseDir, target)
			}
			abs, aerr := filepath.Abs(target)
			if aerr != nil {
				return nil, &IncludeError{Pos: cur.pos(), Path: path, Err: aerr}
			}
			sub, err := p.parseFile(Position{Filename: name, Line: sc.LineNumber(), Column: 1}, abs, path)
			if err != nil {
				return nil, err
			}
			frag.statements = append(frag.statements, sub.statements...)
			for k, v := range sub.options {
				frag.options[k] = v
			}
		case "option":
			sawStatement = true
			cur.word()
			key, err := cur.quotedString()
			if err != nil {
				return nil, err
			}
			val, err := cur.quotedString()
			if err != nil {
				return nil, err
			}
			if err := cur.expectEnd(); err != nil {
				return nil, err
			}
			frag.options[key] = val
		case "unit":
			sawStatement = true
			pos := cur.pos()
			cur.word()
			unit, err := p.unit(cur)
			if err != nil {
				return nil, err
			}
			if err := cur.expectEnd(); err != nil {
				return nil, err
			}
			frag.statements = append(frag.statements, &UnitDecl{Pos: pos, Unit: unit})
			comments = nil
		default:
			sawStatement = true
			stmt, err := p.parseDated(cur, sc, comments)
			if err != nil {
				return nil, err
			}
			frag.statements = append(frag.statements, stmt)
			comments = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frag, nil
}

// parseDated parses one date-led statement, committing to a statement kind
// as soon as the keyword after the date is recognized.
func (p *parser) parseDated(cur *cursor, sc *linescanner, comments []string) (Statement, error) {
	pos := cur.pos()
	tok, tpos := cur.word()
	if !dateRe.MatchString(tok) {
		return nil, &SyntaxError{Pos: tpos, Expected: []string{"date", "include", "option", "unit"}, Got: tok}
	}
	date, ok := parseDateToken(tok)
	if !ok {
		return nil, &SemanticError{Pos: tpos, Msg: fmt.Sprintf("impossible calendar date %s", tok)}
	}

	kw := cur.peekWord()
	switch kw {
	case "custom":
		cur.word()
		st := &Custom{Pos: pos, Date: date}
		for !cur.atEnd() {
			v, err := cur.quotedString()
			if err != nil {
				return nil, err
			}
			st.Values = append(st.Values, v)
		}
		if len(st.Values) == 0 {
			return nil, &SyntaxError{Pos: cur.pos(), Expected: []string{"string"}, Got: ""}
		}
		return st, nil

	case "open":
		cur.word()
		acct, err := p.account(cur)
		if err != nil {
			return nil, err
		}
		st := &Open{Pos: pos, Date: date, Account: acct, Unit: NoUnit}
		if !cur.atEnd() {
			unit, err := p.unit(cur)
			if err != nil {
				return nil, err
			}
			st.Unit = unit
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return st, nil

	case "close":
		cur.word()
		acct, err := p.account(cur)
		if err != nil {
			return nil, err
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return &Close{Pos: pos, Date: date, Account: acct}, nil

	case "commodity":
		cur.word()
		unit, err := p.unit(cur)
		if err != nil {
			return nil, err
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return &Commodity{Pos: pos, Date: date, Unit: unit}, nil

	case "price":
		cur.word()
		base, err := p.unit(cur)
		if err != nil {
			return nil, err
		}
		rtok, rpos := cur.word()
		if !numberRe.MatchString(rtok) {
			return nil, &SyntaxError{Pos: rpos, Expected: []string{"rate"}, Got: rtok}
		}
		rate, derr := decimal.NewFromString(rtok)
		if derr != nil {
			return nil, &SyntaxError{Pos: rpos, Expected: []string{"rate"}, Got: rtok}
		}
		if !rate.IsPositive() {
			return nil, &SemanticError{Pos: rpos, Msg: fmt.Sprintf("price rate must be positive, got %s", rtok)}
		}
		quote, err := p.unit(cur)
		if err != nil {
			return nil, err
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return &Price{Pos: pos, Date: date, Base: base, Rate: rate, Quote: quote}, nil

	case "pad":
		cur.word()
		acct, err := p.account(cur)
		if err != nil {
			return nil, err
		}
		source, err := p.account(cur)
		if err != nil {
			return nil, err
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return &Pad{Pos: pos, Date: date, Account: acct, Source: source}, nil

	case "balance":
		cur.word()
		acct, err := p.account(cur)
		if err != nil {
			return nil, err
		}
		amt, err := p.amount(cur)
		if err != nil {
			return nil, err
		}
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
		return &Balance{Pos: pos, Date: date, Account: acct, Amount: amt}, nil

	case "*", "!", "#":
		return p.parseTransaction(cur, sc, pos, date, comments)

	default:
		return nil, &SyntaxError{
			Pos:      cur.pos(),
			Expected: []string{"custom", "open", "close", "commodity", "price", "pad", "balance", "transaction flag"},
			Got:      kw,
		}
	}
}

func (p *parser) parseTransaction(cur *cursor, sc *linescanner, pos Position, date time.Time, comments []string) (Statement, error) {
	flag, _ := cur.word()
	trans := &Transaction{Pos: pos, Date: date, State: TxState(flag[0]), Comments: comments}

	first, err := cur.quotedString()
	if err != nil {
		return nil, err
	}
	if cur.atEnd() {
		trans.Title = first
	} else {
		second, err := cur.quotedString()
		if err != nil {
			return nil, err
		}
		trans.Payee = first
		trans.Title = second
		if err := cur.expectEnd(); err != nil {
			return nil, err
		}
	}

	for sc.Scan() {
		raw := sc.Text()
		if !isIndented(raw) {
			if strings.TrimSpace(raw) == "" {
				break
			}
			sc.Unscan()
			break
		}
		text, comment := splitComment(raw)
		if strings.TrimSpace(text) == "" {
			if comment != "" {
				trans.Comments = append(trans.Comments, comment)
			}
			continue
		}
		posting, err := p.parsePosting(newCursor(sc.Name(), sc.LineNumber(), text), comment)
		if err != nil {
			return nil, err
		}
		trans.Postings = append(trans.Postings, posting)
	}

	if len(trans.Postings) < 2 {
		return nil, &SemanticError{Pos: pos, Msg: "transaction needs at least two postings"}
	}
	return trans, nil
}

func (p *parser) parsePosting(cur *cursor, comment string) (Posting, error) {
	acct, err := p.account(cur)
	if err != nil {
		return Posting{}, err
	}
	posting := Posting{Account: acct, Comment: comment}
	if cur.atEnd() {
		return posting, nil
	}

	amt, err := p.amount(cur)
	if err != nil {
		return Posting{}, err
	}
	posting.Amount = &amt

	if !cur.atEnd() {
		at, apos := cur.word()
		if at != "@" {
			return Posting{}, &SyntaxError{Pos: apos, Expected: []string{"@", "end of line"}, Got: at}
		}
		price, err := p.amount(cur)
		if err != nil {
			return Posting{}, err
		}
		posting.Price = &price
	}
	if err := cur.expectEnd(); err != nil {
		return Posting{}, err
	}
	return posting, nil
}

// amount parses `NUMBER UNIT` or `(EXPR) UNIT`. Parenthesized arithmetic
// expressions are evaluated at parse time.
func (p *parser) amount(cur *cursor) (Amount, error) {
	cur.skipSpace()
	var nominal decimal.Decimal
	if cur.peekByte() == '(' {
		expr, epos := cur.parenExpr()
		if expr == "" {
			return Amount{}, &SyntaxError{Pos: epos, Expected: []string{"closing parenthesis"}, Got: ""}
		}
		val, cerr := compute.Evaluate(expr)
		if cerr != nil {
			return Amount{}, &SemanticError{Pos: epos, Msg: fmt.Sprintf("bad amount expression %s: %v", expr, cerr)}
		}
		nominal = decimal.NewFromFloat(val)
	} else {
		tok, tpos := cur.word()
		if !numberRe.MatchString(tok) {
			return Amount{}, &SyntaxError{Pos: tpos, Expected: []string{"amount"}, Got: tok}
		}
		var derr error
		nominal, derr = decimal.NewFromString(tok)
		if derr != nil {
			return Amount{}, &SyntaxError{Pos: tpos, Expected: []string{"amount"}, Got: tok}
		}
	}
	unit, err := p.unit(cur)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Nominal: nominal, Unit: unit}, nil
}

func (p *parser) account(cur *cursor) (AccountID, error) {
	tok, tpos := cur.word()
	if !accountRe.MatchString(tok) {
		return 0, &SyntaxError{Pos: tpos, Expected: []string{"account"}, Got: tok}
	}
	return p.symbols.InternAccount(tok), nil
}

func (p *parser) unit(cur *cursor) (UnitID, error) {
	tok, tpos := cur.word()
	if !unitRe.MatchString(tok) {
		return NoUnit, &SyntaxError{Pos: tpos, Expected: []string{"unit"}, Got: tok}
	}
	return p.symbols.InternUnit(tok), nil
}

// parseDateToken validates both the digit shape and the calendar. The shape
// is checked by the grammar; an impossible calendar date (like day 32) is a
// builder semantic error, reported by the caller.
func parseDateToken(tok string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(tok)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// splitComment splits an end-of-line `;` comment off a line, ignoring
// semicolons inside quoted strings.
func splitComment(line string) (text, comment string) {
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case inString && line[i] == '\\':
			i++
		case line[i] == '"':
			inString = !inString
		case !inString && line[i] == ';':
			return line[:i], strings.TrimSpace(line[i:])
		}
	}
	return line, ""
}

func isIndented(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// unescape decodes the body of a double-quoted string.
func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '/':
			b.WriteByte('/')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case 'b':
			b.WriteByte('\b')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("truncated \\u escape")
			}
			v, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err != nil {
				return "", fmt.Errorf("bad \\u escape %q", s[i+1:i+5])
			}
			b.WriteRune(rune(v))
			i += 4
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}

// cursor walks one line byte-wise, tracking the column for error positions.
type cursor struct {
	file string
	line int
	s    string
	i    int
}

func newCursor(file string, line int, s string) *cursor {
	return &cursor{file: file, line: line, s: s}
}

func (c *cursor) pos() Position {
	return Position{Filename: c.file, Line: c.line, Column: c.i + 1}
}

func (c *cursor) skipSpace() {
	for c.i < len(c.s) && (c.s[c.i] == ' ' || c.s[c.i] == '\t') {
		c.i++
	}
}

func (c *cursor) atEnd() bool {
	c.skipSpace()
	return c.i >= len(c.s)
}

func (c *cursor) peekByte() byte {
	if c.i >= len(c.s) {
		return 0
	}
	return c.s[c.i]
}

func (c *cursor) word() (string, Position) {
	c.skipSpace()
	pos := c.pos()
	start := c.i
	for c.i < len(c.s) && c.s[c.i] != ' ' && c.s[c.i] != '\t' {
		c.i++
	}
	return c.s[start:c.i], pos
}

func (c *cursor) peekWord() string {
	save := c.i
	w, _ := c.word()
	c.i = save
	return w
}

// parenExpr reads a balanced parenthesized expression token. Returns ""
// when the parentheses never close.
func (c *cursor) parenExpr() (string, Position) {
	c.skipSpace()
	pos := c.pos()
	depth := 0
	start := c.i
	for j := c.i; j < len(c.s); j++ {
		switch c.s[j] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				c.i = j + 1
				return c.s[start : j+1], pos
			}
		}
	}
	return "", pos
}

func (c *cursor) quotedString() (string, error) {
	c.skipSpace()
	pos := c.pos()
	if c.i >= len(c.s) || c.s[c.i] != '"' {
		got := ""
		if c.i < len(c.s) {
			got, _ = newCursor(c.file, c.line, c.s[c.i:]).word()
		}
		return "", &SyntaxError{Pos: pos, Expected: []string{"string"}, Got: got}
	}
	j := c.i + 1
	for j < len(c.s) {
		if c.s[j] == '\\' {
			j += 2
			continue
		}
		if c.s[j] == '"' {
			break
		}
		j++
	}
	if j >= len(c.s) {
		return "", &SyntaxError{Pos: pos, Expected: []string{"closing quote"}, Got: ""}
	}
	body := c.s[c.i+1 : j]
	c.i = j + 1
	out, err := unescape(body)
	if err != nil {
		return "", &SyntaxError{Pos: pos, Expected: []string{"valid escape"}, Got: err.Error()}
	}
	return out, nil
}

func (c *cursor) expectEnd() error {
	if !c.atEnd() {
		return &SyntaxError{Pos: c.pos(), Expected: []string{"end of line"}, Got: strings.TrimSpace(c.s[c.i:])}
	}
	return nil
}
