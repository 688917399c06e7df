// Package textpos defines a position between two characters of a text,
// together with the side it is attached to.
package textpos

import "fmt"

// Bias says which neighbouring character a position is attached to.
type Bias int

const (
	// Before attaches the position to the character preceding Offset.
	Before Bias = iota
	// After attaches the position to the character at Offset.
	After
)

func (b Bias) String() string {
	if b == After {
		return "after"
	}
	return "before"
}

// Position is an insertion offset and a bias. At equal offsets After
// orders after Before.
type Position struct {
	Offset int  `json:"offset"`
	Bias   Bias `json:"bias"`
}

// New returns a position. A negative offset panics.
func New(offset int, bias Bias) Position {
	if offset < 0 {
		panic(fmt.Sprintf("textpos: New: negative offset %d", offset))
	}
	return Position{Offset: offset, Bias: bias}
}

// Assign sets both fields. A negative offset panics.
func (p *Position) Assign(offset int, bias Bias) {
	*p = New(offset, bias)
}

// Compare returns -1, 0 or +1.
func (p Position) Compare(q Position) int {
	switch {
	case p.Offset < q.Offset:
		return -1
	case p.Offset > q.Offset:
		return 1
	case p.Bias == q.Bias:
		return 0
	case p.Bias == Before:
		return -1
	default:
		return 1
	}
}

func (p Position) Less(q Position) bool    { return p.Compare(q) < 0 }
func (p Position) Greater(q Position) bool { return p.Compare(q) > 0 }

func (p Position) String() string { return fmt.Sprintf("%d/%s", p.Offset, p.Bias) }
