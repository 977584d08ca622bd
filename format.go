package roasted

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteStatement renders one statement in canonical form: the form the
// parser itself accepts, with posting amounts right-aligned to columns.
func WriteStatement(w io.Writer, s Statement, syms *Symbols, columns int) error {
	switch st := s.(type) {
	case *UnitDecl:
		_, err := fmt.Fprintf(w, "unit %s\n", syms.UnitName(st.Unit))
		return err
	case *Custom:
		parts := make([]string, 0, len(st.Values))
		for _, v := range st.Values {
			parts = append(parts, quote(v))
		}
		_, err := fmt.Fprintf(w, "%s custom %s\n", st.Date.Format(dateLayout), strings.Join(parts, " "))
		return err
	case *Open:
		if st.Unit == NoUnit {
			_, err := fmt.Fprintf(w, "%s open %s\n", st.Date.Format(dateLayout), syms.AccountName(st.Account))
			return err
		}
		_, err := fmt.Fprintf(w, "%s open %s %s\n",
			st.Date.Format(dateLayout), syms.AccountName(st.Account), syms.UnitName(st.Unit))
		return err
	case *Close:
		_, err := fmt.Fprintf(w, "%s close %s\n", st.Date.Format(dateLayout), syms.AccountName(st.Account))
		return err
	case *Commodity:
		_, err := fmt.Fprintf(w, "%s commodity %s\n", st.Date.Format(dateLayout), syms.UnitName(st.Unit))
		return err
	case *Price:
		_, err := fmt.Fprintf(w, "%s price %s %s %s\n",
			st.Date.Format(dateLayout), syms.UnitName(st.Base), st.Rate.String(), syms.UnitName(st.Quote))
		return err
	case *Pad:
		_, err := fmt.Fprintf(w, "%s pad %s %s\n",
			st.Date.Format(dateLayout), syms.AccountName(st.Account), syms.AccountName(st.Source))
		return err
	case *Balance:
		_, err := fmt.Fprintf(w, "%s balance %s %s %s\n",
			st.Date.Format(dateLayout), syms.AccountName(st.Account),
			st.Amount.Nominal.String(), syms.UnitName(st.Amount.Unit))
		return err
	case *Transaction:
		return writeTransaction(w, st, syms, columns)
	}
	return fmt.Errorf("unknown statement type %T", s)
}

func writeTransaction(w io.Writer, t *Transaction, syms *Symbols, columns int) error {
	header := t.Date.Format(dateLayout) + " " + string(t.State)
	if t.Payee != "" {
		header += " " + quote(t.Payee)
	}
	header += " " + quote(t.Title)
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, c := range t.Comments {
		if _, err := fmt.Fprintf(w, "    %s\n", c); err != nil {
			return err
		}
	}
	for _, p := range t.Postings {
		line := "    " + syms.AccountName(p.Account)
		if p.Amount != nil {
			amt := p.Amount.Nominal.String() + " " + syms.UnitName(p.Amount.Unit)
			if p.Price != nil {
				amt += " @ " + p.Price.Nominal.String() + " " + syms.UnitName(p.Price.Unit)
			}
			gap := columns - len(line) - len(amt)
			if gap < 1 {
				gap = 1
			}
			line += strings.Repeat(" ", gap) + amt
		}
		if p.Comment != "" {
			line += "  " + p.Comment
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteJournal renders the whole journal in canonical form: options first,
// then every statement in chronological order, transactions separated by
// blank lines.
func WriteJournal(w io.Writer, j *Journal, columns int) error {
	keys := make([]string, 0, len(j.Options))
	for k := range j.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "option %s %s\n", quote(k), quote(j.Options[k])); err != nil {
			return err
		}
	}
	if len(keys) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for i, s := range SortedStatements(j) {
		if _, isTx := s.(*Transaction); isTx && i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := WriteStatement(w, s, j.Symbols, columns); err != nil {
			return err
		}
	}
	return nil
}

// quote renders a string with only the escapes the grammar accepts.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		case '\b':
			b.WriteString(`\b`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
