package lint

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"pyeo/internal/engine"
)

// Filter decides which codes are reported. Entries are code prefixes: "PEO6" selects PEO601 and PEO602.
type Filter struct {
	Select []string
	Ignore []string
}

// Allows reports whether diagnostics with code should be kept. An empty Select keeps everything
// not ignored; the longer matching prefix wins when both lists match.
func (f Filter) Allows(code string) bool {
	selected := longestPrefix(f.Select, code)
	ignored := longestPrefix(f.Ignore, code)
	if len(f.Select) > 0 && selected == 0 {
		return false
	}
	return ignored == 0 || selected > ignored
}

// Apply drops diagnostics the filter rejects and those silenced by noqa comments in source.
func (f Filter) Apply(source []byte, diagnostics []engine.Diagnostic) []engine.Diagnostic {
	noqa := parseSuppressions(source)
	return slices.DeleteFunc(diagnostics, func(d engine.Diagnostic) bool {
		return !f.Allows(string(d.Code)) || noqa.silences(d)
	})
}

func longestPrefix(prefixes []string, code string) int {
	return lo.Reduce(prefixes, func(best int, prefix string, _ int) int {
		if prefix != "" && strings.HasPrefix(code, prefix) && len(prefix) > best {
			return len(prefix)
		}
		return best
	}, 0)
}

// noqaPattern matches "# noqa" and "# noqa: PEO300, PEO400" comments.
var noqaPattern = regexp.MustCompile(`(?i)#\s*noqa(?::\s*(?P<codes>[A-Z]+[0-9]+(?:[\s,]+[A-Z]+[0-9]+)*))?`)

// suppressions maps 1-based line numbers to the codes silenced there. A nil entry silences all codes.
type suppressions map[int][]string

func parseSuppressions(source []byte) suppressions {
	out := suppressions{}
	for i, line := range strings.Split(string(source), "\n") {
		m := noqaPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		codes := m[noqaPattern.SubexpIndex("codes")]
		if codes == "" {
			out[i+1] = nil
			continue
		}
		out[i+1] = strings.FieldsFunc(strings.ToUpper(codes), func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
	}
	return out
}

func (s suppressions) silences(d engine.Diagnostic) bool {
	codes, ok := s[d.Line]
	if !ok {
		return false
	}
	if codes == nil {
		return true
	}
	return lo.ContainsBy(codes, func(code string) bool {
		return strings.HasPrefix(string(d.Code), code)
	})
}
