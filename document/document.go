// Package document implements a styled text: characters, character-style
// runs and paragraph runs, mutated through a single Replace primitive.
package document

import (
	"fmt"
	"math"
	"sync"

	"github.com/ByLCY/papyrus-text/gaptable"
	"github.com/ByLCY/papyrus-text/style"
)

// ParagraphSeparator ends a paragraph.
const ParagraphSeparator = '\n'

// Source is read access to styled text. Document implements it, and so does
// any text that can be copied into a Document.
type Source interface {
	Len() int
	CharAt(i int) rune
	CharStyleAt(i int) style.Char
	// CharStyleLimit returns the end of the character-style run containing i.
	CharStyleLimit(i int) int
	ParagraphStyleAt(i int) style.Paragraph
	ParagraphStart(i int) int
	ParagraphLimit(i int) int
	Timestamp() int
}

// Document is a mutable styled text.
//
// Paragraph boundaries are 0 and every position following a paragraph
// separator that is before the end of the text. They are independent of
// character-style boundaries.
type Document struct {
	mu    sync.Mutex
	text  gapBuffer
	chars *gaptable.RunTable[style.Char]
	paras *gaptable.RunTable[style.Paragraph]

	timestamp      int
	dStart, dLimit int
}

// New returns an empty document using the default styles.
func New() *Document {
	return NewWithStyles(style.DefaultChar, style.DefaultParagraph)
}

// NewWithStyles returns an empty document whose first insertion takes cs and ps.
func NewWithStyles(cs style.Char, ps style.Paragraph) *Document {
	d := &Document{
		chars: gaptable.NewRunTable(cs),
		paras: gaptable.NewRunTable(ps),
	}
	d.dStart, d.dLimit = math.MaxInt, math.MinInt
	return d
}

// NewFromSource returns a document holding a copy of src.
func NewFromSource(src Source) *Document {
	d := New()
	d.Replace(0, 0, src, 0, src.Len())
	return d
}

func (d *Document) Len() int { return d.text.Len() }

// Timestamp increments on every mutation.
func (d *Document) Timestamp() int { return d.timestamp }

func (d *Document) checkOffset(op string, i, hi int) {
	if i < 0 || i > hi {
		panic(fmt.Sprintf("document: %s: offset %d out of range [0,%d]", op, i, hi))
	}
}

// CharAt returns the character at i, which must be < Len.
func (d *Document) CharAt(i int) rune {
	d.checkOffset("CharAt", i, d.Len()-1)
	return d.text.at(i)
}

// Text returns the characters of [start,limit).
func (d *Document) Text(start, limit int) string {
	d.checkRange("Text", start, limit)
	return string(d.text.slice(start, limit))
}

func (d *Document) String() string { return string(d.text.slice(0, d.Len())) }

// CharStyleAt returns the style of the character at i. At Len it is the
// style of the last run.
func (d *Document) CharStyleAt(i int) style.Char {
	d.checkOffset("CharStyleAt", i, d.Len())
	return d.chars.Value(d.chars.FindRunContaining(i, d.Len()))
}

// CharStyleLimit returns the end of the character-style run containing i.
func (d *Document) CharStyleLimit(i int) int {
	d.checkOffset("CharStyleLimit", i, d.Len())
	return d.chars.RunLimit(d.chars.FindRunContaining(i, d.Len()), d.Len())
}

// CharStyleRuns returns the character-style runs of [start,limit) relative
// to start.
func (d *Document) CharStyleRuns(start, limit int) []gaptable.Run[style.Char] {
	d.checkRange("CharStyleRuns", start, limit)
	return d.chars.Runs(start, limit, d.Len())
}

// ParagraphStyleAt returns the style of the paragraph containing i.
func (d *Document) ParagraphStyleAt(i int) style.Paragraph {
	d.checkOffset("ParagraphStyleAt", i, d.Len())
	return d.paras.Value(d.paras.FindRunContaining(i, d.Len()))
}

// endsParagraph reports whether the text ends with a separator, in which
// case Len starts an empty final paragraph.
func (d *Document) endsParagraph() bool {
	n := d.Len()
	return n > 0 && d.text.at(n-1) == ParagraphSeparator
}

// ParagraphStart returns the start of the paragraph containing i.
func (d *Document) ParagraphStart(i int) int {
	d.checkOffset("ParagraphStart", i, d.Len())
	if i == d.Len() && d.endsParagraph() {
		return i
	}
	return d.paras.RunStart(d.paras.FindRunContaining(i, d.Len()), d.Len())
}

// ParagraphLimit returns the end of the paragraph containing i, just past
// its separator.
func (d *Document) ParagraphLimit(i int) int {
	d.checkOffset("ParagraphLimit", i, d.Len())
	if i == d.Len() {
		return i
	}
	return d.paras.RunLimit(d.paras.FindRunContaining(i, d.Len()), d.Len())
}

// ParagraphCount returns the number of paragraph runs.
func (d *Document) ParagraphCount() int { return d.paras.Count() }

func (d *Document) checkRange(op string, start, limit int) {
	if start < 0 || start > limit || limit > d.Len() {
		panic(fmt.Sprintf("document: %s: bad range [%d,%d) of %d", op, start, limit, d.Len()))
	}
}

// DamagedRange returns the span touched since the last reset. An empty
// accumulator reads as (math.MaxInt, math.MinInt).
func (d *Document) DamagedRange() (start, limit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dStart, d.dLimit
}

// ResetDamagedRange empties the damaged-range accumulator.
func (d *Document) ResetDamagedRange() {
	d.mu.Lock()
	d.dStart, d.dLimit = math.MaxInt, math.MinInt
	d.mu.Unlock()
}

// damage widens the accumulator for an edit that replaced [start,limit)
// with insLength characters and advances the timestamp. Callers hold mu.
func (d *Document) damage(start, limit, insLength int) {
	d.dStart = min(d.dStart, start)
	if d.dLimit >= limit {
		d.dLimit += insLength - (limit - start)
	} else {
		d.dLimit = start + insLength
	}
	d.timestamp++
}

// Replace replaces [start,limit) with [srcStart,srcLimit) of src, including
// both style partitions. src may be d itself. Nothing happens when both
// ranges are empty; a range outside the texts panics.
func (d *Document) Replace(start, limit int, src Source, srcStart, srcLimit int) {
	d.checkRange("Replace", start, limit)
	if srcStart != srcLimit {
		if src == nil || srcStart < 0 || srcStart > srcLimit || srcLimit > src.Len() {
			panic(fmt.Sprintf("document: Replace: bad source range [%d,%d)", srcStart, srcLimit))
		}
	}
	if start == limit && srcStart == srcLimit {
		return
	}
	if self, ok := src.(*Document); ok && self == d && srcStart != srcLimit {
		src = d.Copy(srcStart, srcLimit)
		srcStart, srcLimit = 0, srcLimit-srcStart
	}

	insLength := srcLimit - srcStart
	var (
		ins       []rune
		charRuns  []gaptable.Run[style.Char]
		paraRuns  []gaptable.Run[style.Paragraph]
		oldLength = d.Len()
	)
	if insLength > 0 {
		ins = make([]rune, insLength)
		for i := range ins {
			ins[i] = src.CharAt(srcStart + i)
		}
		for i := srcStart; i < srcLimit; {
			next := min(src.CharStyleLimit(i), srcLimit)
			if next <= i {
				panic(fmt.Sprintf("document: Replace: source style run at %d does not advance", i))
			}
			charRuns = append(charRuns, gaptable.Run[style.Char]{Start: i - srcStart, Value: src.CharStyleAt(i)})
			i = next
		}
		paraRuns = d.insertedParagraphs(start, limit, ins, src, srcStart)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.text.replace(start, limit, ins)
	d.chars.Replace(start, limit, oldLength, insLength, charRuns, true)
	d.paras.Replace(start, limit, oldLength, insLength, paraRuns, false)
	d.fixParagraphBoundary(start)
	d.fixParagraphBoundary(start + insLength)
	d.damage(start, limit, insLength)
}

// insertedParagraphs returns the paragraph runs of inserted text. A partial
// paragraph joining existing text takes the existing paragraph's style;
// whole paragraphs keep the source's.
func (d *Document) insertedParagraphs(start, limit int, ins []rune, src Source, srcStart int) []gaptable.Run[style.Paragraph] {
	oldLength := d.Len()
	headIsNew := start == oldLength && (oldLength == 0 || d.endsParagraph())
	head := src.ParagraphStyleAt(srcStart)
	if !headIsNew {
		head = d.ParagraphStyleAt(start)
	}
	runs := []gaptable.Run[style.Paragraph]{{Start: 0, Value: head}}
	for i, r := range ins {
		if r == ParagraphSeparator && i+1 < len(ins) {
			runs = append(runs, gaptable.Run[style.Paragraph]{Start: i + 1, Value: src.ParagraphStyleAt(srcStart + i + 1)})
		}
	}
	if limit < oldLength && len(runs) > 1 && ins[len(ins)-1] != ParagraphSeparator {
		runs[len(runs)-1].Value = d.ParagraphStyleAt(limit)
	}
	return runs
}

// fixParagraphBoundary makes pos a paragraph boundary exactly when it
// follows a separator and precedes the end of the text. Callers hold mu.
func (d *Document) fixParagraphBoundary(pos int) {
	n := d.Len()
	if pos == 0 {
		return
	}
	want := pos < n && d.text.at(pos-1) == ParagraphSeparator
	if pos >= n {
		return
	}
	has := d.paras.HasBoundary(pos, n)
	switch {
	case want && !has:
		d.paras.SetBoundary(pos, n, d.paras.Value(d.paras.FindRunContaining(pos, n)))
	case !want && has:
		d.paras.RemoveBoundary(pos, n)
	}
}

// Insert inserts all of src at pos.
func (d *Document) Insert(pos int, src Source) {
	d.Replace(pos, pos, src, 0, src.Len())
}

// InsertString inserts text at pos with the character style in effect
// before pos.
func (d *Document) InsertString(pos int, text string) {
	cs := d.CharStyleAt(max(pos-1, 0))
	d.Insert(pos, NewPlain(text, cs, d.ParagraphStyleAt(pos)))
}

// Append adds all of src at the end.
func (d *Document) Append(src Source) {
	d.Insert(d.Len(), src)
}

// Remove deletes [start,limit).
func (d *Document) Remove(start, limit int) {
	d.Replace(start, limit, nil, 0, 0)
}

// SetCharStyle applies cs to [start,limit).
func (d *Document) SetCharStyle(start, limit int, cs style.Char) {
	d.checkRange("SetCharStyle", start, limit)
	if start == limit {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chars.SetRange(start, limit, d.Len(), cs, true)
	d.damage(start, limit, limit-start)
}

// SetParagraphStyle applies ps to every paragraph intersecting
// [start,limit). An empty range selects the paragraph containing start.
func (d *Document) SetParagraphStyle(start, limit int, ps style.Paragraph) {
	d.checkRange("SetParagraphStyle", start, limit)
	n := d.Len()
	first := d.paras.FindRunContaining(start, n)
	last := first
	if limit > start {
		last = d.paras.FindRunContaining(limit-1, n)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := first; i <= last; i++ {
		d.paras.SetValue(i, ps)
	}
	pStart := d.paras.RunStart(first, n)
	pLimit := d.paras.RunLimit(last, n)
	d.damage(pStart, pLimit, pLimit-pStart)
}

// Copy returns a new document holding [start,limit) of d with its styles.
func (d *Document) Copy(start, limit int) *Document {
	d.checkRange("Copy", start, limit)
	c := NewWithStyles(d.CharStyleAt(start), d.ParagraphStyleAt(start))
	if start == limit {
		return c
	}
	ins := d.text.slice(start, limit)
	n := limit - start
	c.text.replace(0, 0, ins)
	c.chars.Replace(0, 0, 0, n, d.chars.Runs(start, limit, d.Len()), true)

	paraRuns := []gaptable.Run[style.Paragraph]{{Start: 0, Value: d.ParagraphStyleAt(start)}}
	for i, r := range ins {
		if r == ParagraphSeparator && i+1 < n {
			paraRuns = append(paraRuns, gaptable.Run[style.Paragraph]{Start: i + 1, Value: d.ParagraphStyleAt(start + i + 1)})
		}
	}
	c.paras.Replace(0, 0, 0, n, paraRuns, false)
	return c
}

// Iterator returns a character iterator over [start,limit).
func (d *Document) Iterator(start, limit int) *Iterator {
	d.checkRange("Iterator", start, limit)
	return NewIterator(d, start, limit)
}
