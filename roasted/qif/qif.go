// Package qif reads the non-investment subset of the QIF interchange
// format: bank, cash and credit card records.
package qif

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one dated QIF entry between a D line and the ^ terminator.
type Record struct {
	Type     string
	Date     string
	Amount   string
	Payee    string
	Memo     string
	Category string
	Cleared  string
	Num      string
}

// Parse reads all records from a QIF stream. Field lines outside a record
// and unknown field codes are skipped.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	var cur *Record
	curType := ""

	sc := bufio.NewScanner(r)
	line, recStart := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "!Type:") {
			curType = strings.TrimSpace(text[len("!Type:"):])
			continue
		}
		if strings.HasPrefix(text, "!") {
			continue
		}
		if text == "^" {
			if cur != nil {
				records = append(records, *cur)
				cur = nil
			}
			continue
		}
		if cur == nil {
			if text[0] != 'D' {
				continue
			}
			cur = &Record{Type: curType}
			recStart = line
		}
		code, value := text[0], text[1:]
		switch code {
		case 'D':
			cur.Date = value
		case 'T':
			if cur.Amount == "" {
				cur.Amount = value
			}
		case 'U':
			// higher precision variant of T, always preferred
			cur.Amount = value
		case 'P':
			cur.Payee = value
		case 'M':
			if cur.Memo == "" {
				cur.Memo = value
			} else {
				cur.Memo += " " + value
			}
		case 'L':
			cur.Category = value
		case 'C':
			cur.Cleared = value
		case 'N':
			cur.Num = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		return nil, fmt.Errorf("qif: record starting at line %d has no ^ terminator", recStart)
	}
	return records, nil
}
