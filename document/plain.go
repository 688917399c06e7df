package document

import (
	"fmt"

	"github.com/ByLCY/papyrus-text/style"
)

// Plain is an immutable Source with a single character style and a single
// paragraph style.
type Plain struct {
	runes []rune
	cs    style.Char
	ps    style.Paragraph
}

// NewPlain returns text as a Source.
func NewPlain(text string, cs style.Char, ps style.Paragraph) *Plain {
	return &Plain{runes: []rune(text), cs: cs, ps: ps}
}

func (p *Plain) Len() int { return len(p.runes) }

func (p *Plain) CharAt(i int) rune {
	if i < 0 || i >= len(p.runes) {
		panic(fmt.Sprintf("document: Plain.CharAt: offset %d out of range [0,%d)", i, len(p.runes)))
	}
	return p.runes[i]
}

func (p *Plain) CharStyleAt(int) style.Char           { return p.cs }
func (p *Plain) CharStyleLimit(int) int               { return len(p.runes) }
func (p *Plain) ParagraphStyleAt(int) style.Paragraph { return p.ps }
func (p *Plain) Timestamp() int                       { return 0 }

func (p *Plain) ParagraphStart(i int) int {
	for i > 0 && p.runes[i-1] != ParagraphSeparator {
		i--
	}
	return i
}

func (p *Plain) ParagraphLimit(i int) int {
	for i < len(p.runes) {
		i++
		if p.runes[i-1] == ParagraphSeparator {
			break
		}
	}
	return i
}
