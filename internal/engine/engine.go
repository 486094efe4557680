// Package engine runs rule visitors over a parsed file and turns their violations into diagnostics.
package engine

import (
	"iter"

	"pyeo/internal/rules"
	"pyeo/internal/syntax"
)

// Diagnostic is a violation tagged with the adapter that produced it.
// Message embeds the code prefix, e.g. `PEO300 "er" suffix forbidden`.
type Diagnostic struct {
	Line    int        `json:"line"`
	Column  int        `json:"column"`
	Code    rules.Code `json:"code"`
	Message string     `json:"message"`
	Origin  string     `json:"origin"`
}

// FromViolation builds a diagnostic for v.
func FromViolation(v rules.Violation, origin string) Diagnostic {
	return Diagnostic{
		Line:    v.Line,
		Column:  v.Column,
		Code:    v.Code,
		Message: v.Text(),
		Origin:  origin,
	}
}

// Run visits f with every visitor in order and yields their problems: visitor order first, then
// document order within a visitor. Each visitor runs only when the consumer reaches it.
func Run(f *syntax.File, visitors []rules.Visitor, origin string) iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		for _, v := range visitors {
			v.Visit(f)
			for _, p := range v.Problems() {
				if !yield(FromViolation(p, origin)) {
					return
				}
			}
		}
	}
}

// Collect drains a diagnostic sequence.
func Collect(seq iter.Seq[Diagnostic]) []Diagnostic {
	var out []Diagnostic
	for d := range seq {
		out = append(out, d)
	}
	return out
}

// FileResult groups the diagnostics of one file.
type FileResult struct {
	Path        string       `json:"path"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
