package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"svw.info/advent/internal/domain"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "goat", Normalize("  GoAt\t"))
	assert.Equal(t, "mexico city", Normalize("Mexico City"))
	assert.Equal(t, "", Normalize("   "))
}

func TestMatchBlank(t *testing.T) {
	b := domain.Blank{Accept: []string{"Madrid", "Mexico City"}}
	cases := []struct {
		in   string
		want bool
	}{
		{"madrid", true},
		{" MEXICO CITY ", true},
		{"Mexico", false},
		{"", false},
		{"   ", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MatchBlank(b, c.in), "input %q", c.in)
	}
}

func TestMatch(t *testing.T) {
	m := New()
	p := domain.Puzzle{
		Ordinal: 3,
		Blanks: []domain.Blank{
			{Label: "4", Accept: []string{"Islamabad"}},
			{Label: "7", Accept: []string{"Madrid", "Minsk"}},
		},
	}

	ok, blanks := m.Match(p, []string{"islamabad", "MINSK"})
	assert.True(t, ok)
	assert.Equal(t, []bool{true, true}, blanks)

	ok, blanks = m.Match(p, []string{"Islamabad", "Paris"})
	assert.False(t, ok)
	assert.Equal(t, []bool{true, false}, blanks)

	ok, blanks = m.Match(p, []string{"Islamabad"})
	assert.False(t, ok)
	assert.Equal(t, []bool{true, false}, blanks)

	ok, _ = m.Match(p, []string{"Islamabad", "Minsk", "extra"})
	assert.False(t, ok)
}
