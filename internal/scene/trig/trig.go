// Package trig holds the fixed-point sine and cosine lookup tables the
// scene math runs on. Angles are integers in [0, Units); values are scaled
// by 1<<16.
package trig

import "github.com/chewxy/math32"

const (
	Units = 2048
	Mask  = Units - 1
	One   = 1 << 16
)

type Table struct {
	Sine   [Units]int
	Cosine [Units]int
}

// Build computes the standard tables.
func Build() *Table {
	t := &Table{}
	const step = 2 * math32.Pi / Units
	for i := 0; i < Units; i++ {
		a := float32(i) * step
		t.Sine[i] = int(One * math32.Sin(a))
		t.Cosine[i] = int(One * math32.Cos(a))
	}
	return t
}

func (t *Table) Sin(angle int) int { return t.Sine[angle&Mask] }
func (t *Table) Cos(angle int) int { return t.Cosine[angle&Mask] }
