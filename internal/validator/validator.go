package validator

import (
	"strings"

	"golang.org/x/text/cases"

	"svw.info/advent/internal/domain"
)

// Matcher applies the answer policy shared by every puzzle: trim, fold
// case, then require an exact match with one accepted literal.
type Matcher struct{}

func New() *Matcher { return &Matcher{} }

// Normalize trims surrounding whitespace and case-folds s.
func Normalize(s string) string {
	// Casers keep state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// MatchBlank reports whether input equals any accepted literal.
func MatchBlank(b domain.Blank, input string) bool {
	in := Normalize(input)
	if in == "" {
		return false
	}
	for _, a := range b.Accept {
		if Normalize(a) == in {
			return true
		}
	}
	return false
}

// Match checks inputs positionally against p's blanks. ok is true only when
// every blank matches and no input is missing or extra.
func (m *Matcher) Match(p domain.Puzzle, inputs []string) (bool, []bool) {
	blanks := make([]bool, len(p.Blanks))
	ok := len(inputs) == len(p.Blanks)
	for i, b := range p.Blanks {
		if i < len(inputs) {
			blanks[i] = MatchBlank(b, inputs[i])
		}
		ok = ok && blanks[i]
	}
	return ok, blanks
}
