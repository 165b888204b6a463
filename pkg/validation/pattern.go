package validation

import (
	"time"

	"github.com/dlclark/regexp2"
)

// PatternTimeout bounds a single pattern match. A match that runs longer is
// treated as a mismatch.
const PatternTimeout = 250 * time.Millisecond

// Pattern is a compiled regular expression in ECMAScript syntax, the dialect
// browser form rules are written in (lookaheads included).
type Pattern struct {
	re *regexp2.Regexp
}

// Anchor wraps expr so it only matches whole values.
func Anchor(expr string) string {
	return `^(?:` + expr + `)$`
}

// CompilePattern compiles expr without adding anchors.
func CompilePattern(expr string) (*Pattern, error) {
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = PatternTimeout
	return &Pattern{re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(expr string) *Pattern {
	p, err := CompilePattern(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// MatchString reports whether s contains a match.
func (p *Pattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.re.String()
}
