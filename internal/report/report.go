// Package report renders diagnostics as flake8-style text or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"pyeo/internal/engine"
	"pyeo/internal/rules"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Entry is one diagnostic in JSON output. Column is 1-based like the text layout.
type Entry struct {
	Path    string     `json:"path"`
	Line    int        `json:"line"`
	Column  int        `json:"column"`
	Code    rules.Code `json:"code"`
	Message string     `json:"message"`
	Origin  string     `json:"origin"`
}

// Reporter writes results to w.
type Reporter struct {
	w      io.Writer
	format Format

	path *color.Color
	pos  *color.Color
	code *color.Color
}

// NewReporter creates a reporter. Colours follow the terminal unless noColor is set.
func NewReporter(w io.Writer, format Format, noColor bool) *Reporter {
	r := &Reporter{
		w:      w,
		format: format,
		path:   color.New(color.Bold),
		pos:    color.New(color.FgCyan),
		code:   color.New(color.FgRed, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{r.path, r.pos, r.code} {
			c.DisableColor()
		}
	}
	return r
}

// Write renders every diagnostic of results and returns how many were written.
func (r *Reporter) Write(results []engine.FileResult) (int, error) {
	entries := Entries(results)
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return 0, errors.Wrap(err, "write json report")
		}
	case FormatText, "":
		for _, e := range entries {
			_, err := fmt.Fprintf(r.w, "%s:%s: %s %s\n",
				r.path.Sprint(e.Path),
				r.pos.Sprintf("%d:%d", e.Line, e.Column),
				r.code.Sprint(e.Code),
				e.Message,
			)
			if err != nil {
				return 0, errors.Wrap(err, "write text report")
			}
		}
	default:
		return 0, errors.Newf("unknown report format %q", r.format)
	}
	return len(entries), nil
}

// Entries flattens results in order, converting columns to 1-based and splitting the code off
// the message.
func Entries(results []engine.FileResult) []Entry {
	entries := []Entry{}
	for _, res := range results {
		for _, d := range res.Diagnostics {
			entries = append(entries, Entry{
				Path:    res.Path,
				Line:    d.Line,
				Column:  d.Column + 1,
				Code:    d.Code,
				Message: strings.TrimPrefix(d.Message, string(d.Code)+" "),
				Origin:  d.Origin,
			})
		}
	}
	return entries
}

// WriteRules prints the rule catalogue as a table.
func WriteRules(w io.Writer, catalogue []rules.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tORIGIN\tDESCRIPTION")
	for _, rule := range catalogue {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rule.Code, rule.Name, rule.Origin, rule.Description)
	}
	return errors.Wrap(tw.Flush(), "write rules")
}
