package roasted

import (
	"bufio"
	"io"
)

// linescanner wraps bufio.Scanner with the source name and line number the
// parser needs for error positions, plus single-line pushback so the
// transaction parser can stop at the first non-indented line without
// consuming it.
type linescanner struct {
	name    string
	scanner *bufio.Scanner
	line    int
	text    string
	pushed  bool
	done    bool
}

func newLineScanner(name string, r io.Reader) *linescanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &linescanner{name: name, scanner: sc}
}

func (ls *linescanner) Scan() bool {
	if ls.pushed {
		ls.pushed = false
		return true
	}
	if ls.done {
		return false
	}
	if !ls.scanner.Scan() {
		ls.done = true
		return false
	}
	ls.line++
	ls.text = ls.scanner.Text()
	return true
}

// Unscan makes the current line available to the next Scan call again.
func (ls *linescanner) Unscan() {
	ls.pushed = true
}

func (ls *linescanner) Text() string {
	return ls.text
}

func (ls *linescanner) Name() string {
	return ls.name
}

func (ls *linescanner) LineNumber() int {
	return ls.line
}

func (ls *linescanner) Err() error {
	return ls.scanner.Err()
}
