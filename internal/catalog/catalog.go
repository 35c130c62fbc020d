// Package catalog loads the puzzle definitions a deployment plays with.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"svw.info/advent/internal/domain"
)

// Catalog holds one definition per puzzle slot.
type Catalog struct {
	puzzles map[domain.Ordinal]domain.Puzzle
}

type file struct {
	Puzzles []domain.Puzzle `yaml:"puzzles"`
}

// Load reads and validates a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Puzzles)
}

// New validates puzzles and builds a catalog from them.
func New(puzzles []domain.Puzzle) (*Catalog, error) {
	c := &Catalog{puzzles: make(map[domain.Ordinal]domain.Puzzle, len(puzzles))}
	for _, p := range puzzles {
		if !p.Ordinal.Valid() {
			return nil, fmt.Errorf("puzzle ordinal %d out of range 1..%d", p.Ordinal, domain.PuzzleCount)
		}
		if _, dup := c.puzzles[p.Ordinal]; dup {
			return nil, fmt.Errorf("puzzle %d defined twice", p.Ordinal)
		}
		if len(p.Blanks) == 0 {
			return nil, fmt.Errorf("puzzle %d has no blanks", p.Ordinal)
		}
		for i, b := range p.Blanks {
			if len(b.Accept) == 0 {
				return nil, fmt.Errorf("puzzle %d blank %d accepts nothing", p.Ordinal, i+1)
			}
			for _, a := range b.Accept {
				if strings.TrimSpace(a) == "" {
					return nil, fmt.Errorf("puzzle %d blank %d has an empty accepted answer", p.Ordinal, i+1)
				}
			}
		}
		c.puzzles[p.Ordinal] = p
	}
	for _, o := range domain.Ordinals() {
		if _, ok := c.puzzles[o]; !ok {
			return nil, fmt.Errorf("puzzle %d missing", o)
		}
	}
	return c, nil
}

// Puzzle returns the definition for o.
func (c *Catalog) Puzzle(o domain.Ordinal) (domain.Puzzle, bool) {
	p, ok := c.puzzles[o]
	return p, ok
}

// Puzzles lists every definition in ordinal order.
func (c *Catalog) Puzzles() []domain.Puzzle {
	out := make([]domain.Puzzle, 0, len(c.puzzles))
	for _, o := range domain.Ordinals() {
		if p, ok := c.puzzles[o]; ok {
			out = append(out, p)
		}
	}
	return out
}
