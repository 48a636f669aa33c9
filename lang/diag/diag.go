// Package diag implements source-anchored diagnostics: a sticky hadError
// flag plus an accumulating bag of errors, and formatting of a diagnostic as
// "<path>:<line>:<col>: <message>" followed by a source excerpt with a caret
// underline, per the diagnostics format the compiler's phases share.
//
// This mirrors the teacher's use of go/scanner.Error / go/scanner.ErrorList
// for its own diagnostics (lang/scanner.ErrorList, lang/resolver's
// `errors scanner.ErrorList` field) but adds the source-excerpt rendering
// the language's diagnostics format requires.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nilfoo/stako/lang/token"
)

// Error is a single diagnostic: a position and a message.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Bag accumulates diagnostics for one compilation phase (lexer, parser or
// resolver) and tracks whether any error has been seen. Phases are only
// entered when the previous phase's bag reports no error (HadError is false).
type Bag struct {
	errs     []Error
	hadError bool
}

// Add appends a new diagnostic and sets the sticky error flag.
func (b *Bag) Add(pos token.Position, format string, args ...interface{}) {
	b.errs = append(b.errs, Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
	b.hadError = true
}

// HadError reports whether any diagnostic has been recorded.
func (b *Bag) HadError() bool { return b.hadError }

// Errors returns the accumulated diagnostics, sorted by position.
func (b *Bag) Errors() []Error {
	sort.SliceStable(b.errs, func(i, j int) bool {
		a, c := b.errs[i].Pos, b.errs[j].Pos
		if a.Filename != c.Filename {
			return a.Filename < c.Filename
		}
		if a.Line != c.Line {
			return a.Line < c.Line
		}
		return a.Col < c.Col
	})
	return b.errs
}

// Err returns an error value summarizing the bag, or nil if it is empty.
func (b *Bag) Err() error {
	if len(b.errs) == 0 {
		return nil
	}
	var sb strings.Builder
	for i, e := range b.Errors() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return errString(sb.String())
}

type errString string

func (e errString) Error() string { return string(e) }

// PrintExcerpt writes a diagnostic followed by a two-line source excerpt (the
// offending line and a caret underline pointing at the column) to w, which
// is how individual errors are rendered to standard error. Color is
// advisory and not applied here: behavior is identical with or without a
// terminal, per the diagnostics format's requirement that correctness not
// depend on it.
func PrintExcerpt(w *strings.Builder, src []byte, e Error) {
	fmt.Fprintf(w, "%s: %s\n", e.Pos, e.Msg)
	if !e.Pos.IsValid() {
		return
	}
	line := lineAt(src, e.Pos.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "%s\n", line)
	col := e.Pos.Col
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	fmt.Fprintf(w, "%s^\n", strings.Repeat(" ", col-1))
}

func lineAt(src []byte, n int) string {
	if n < 1 {
		return ""
	}
	cur := 1
	start := 0
	for i, b := range src {
		if cur == n {
			start = i
			for j := i; j < len(src); j++ {
				if src[j] == '\n' {
					return string(src[start:j])
				}
			}
			return string(src[start:])
		}
		if b == '\n' {
			cur++
		}
	}
	if cur == n {
		return string(src[start:])
	}
	return ""
}
