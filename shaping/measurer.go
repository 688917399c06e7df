package shaping

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/style"
)

// ErrOutOfSync is returned when an incremental update does not match the
// text the measurer was built from.
var ErrOutOfSync = errors.New("shaping: measurer out of sync with text")

const (
	breakNone uint8 = iota
	breakCan
	breakMust
)

// fitSlack absorbs rounding when comparing advances with a budget.
const fitSlack = 1e-9

// Measurer is a resumable cursor over one paragraph. Each call to NextRun
// measures the longest run from the current position that fits a width.
type Measurer struct {
	faces FaceProvider
	dir   style.Direction
	start int
	pos   int

	text   []rune
	styles []style.Char
	adv    []float64
	breaks []uint8 // len(text)+1; break opportunity before i
	stops  []bool  // len(text)+1; grapheme boundary before i
	levels []uint8
	base   uint8

	metrics map[style.Char]Metrics
}

// NewMeasurer returns a measurer over the paragraph [start,limit) of src,
// positioned at start.
func NewMeasurer(src document.Source, start, limit int, faces FaceProvider) *Measurer {
	if start < 0 || start > limit || limit > src.Len() {
		panic(fmt.Sprintf("shaping: NewMeasurer: bad paragraph [%d,%d) of %d", start, limit, src.Len()))
	}
	m := &Measurer{
		faces:   faces,
		dir:     src.ParagraphStyleAt(start).Direction,
		start:   start,
		pos:     start,
		text:    make([]rune, limit-start),
		styles:  make([]style.Char, limit-start),
		adv:     make([]float64, limit-start),
		metrics: map[style.Char]Metrics{},
	}
	for i := start; i < limit; {
		next := min(src.CharStyleLimit(i), limit)
		cs := src.CharStyleAt(i)
		for k := i; k < next; k++ {
			m.text[k-start] = src.CharAt(k)
			m.styles[k-start] = cs
		}
		i = next
	}
	for i := range m.text {
		m.adv[i] = m.measure(i)
	}
	m.analyze()
	return m
}

func (m *Measurer) measure(i int) float64 {
	face := m.faces.Face(m.styles[i])
	a := face.Advance(m.text[i])
	if i > 0 && m.styles[i-1] == m.styles[i] {
		a += face.Kern(m.text[i-1], m.text[i])
	}
	return a
}

func (m *Measurer) metricsOf(cs style.Char) Metrics {
	if mt, ok := m.metrics[cs]; ok {
		return mt
	}
	mt := m.faces.Face(cs).Metrics()
	m.metrics[cs] = mt
	return mt
}

// analyze recomputes break opportunities, grapheme stops and levels.
func (m *Measurer) analyze() {
	n := len(m.text)
	m.breaks = make([]uint8, n+1)
	m.stops = make([]bool, n+1)
	m.stops[0] = true
	s := string(m.text)
	state := -1
	i := 0
	for len(s) > 0 {
		var (
			c          string
			boundaries int
		)
		c, s, boundaries, state = uniseg.StepString(s, state)
		i += utf8.RuneCountInString(c)
		m.stops[i] = true
		switch boundaries & uniseg.MaskLine {
		case uniseg.LineCanBreak:
			m.breaks[i] = breakCan
		case uniseg.LineMustBreak:
			m.breaks[i] = breakMust
		}
	}
	m.levels, m.base = resolveLevels(m.text, m.dir)
}

// Start returns the paragraph start.
func (m *Measurer) Start() int { return m.start }

// Limit returns the paragraph limit.
func (m *Measurer) Limit() int { return m.start + len(m.text) }

// Position returns the offset the next run starts at.
func (m *Measurer) Position() int { return m.pos }

// SetPosition moves the cursor within the paragraph.
func (m *Measurer) SetPosition(pos int) {
	if pos < m.start || pos > m.Limit() {
		panic(fmt.Sprintf("shaping: SetPosition: %d outside [%d,%d]", pos, m.start, m.Limit()))
	}
	m.pos = pos
}

// TabLimit returns the offset just past the first tab at or after the
// current position and before limit, or limit if there is none.
func (m *Measurer) TabLimit(limit int) int {
	lim := min(limit, m.Limit()) - m.start
	for i := m.pos - m.start; i < lim; i++ {
		if m.text[i] == '\t' {
			return m.start + i + 1
		}
	}
	return limit
}

// LeftToRight reports the paragraph direction.
func (m *Measurer) LeftToRight() bool { return m.base&1 == 0 }

// NextRun returns the longest run starting at the current position and
// ending at a break opportunity or at limit whose visible advance fits
// width. If even the first word does not fit, NextRun returns nil when
// requireNextWord is set and otherwise breaks the word at grapheme
// boundaries, taking at least one cluster. It returns nil at limit.
func (m *Measurer) NextRun(width float64, limit int, requireNextWord bool) *Run {
	i0 := m.pos - m.start
	lim := min(limit, m.Limit()) - m.start
	if i0 >= lim {
		return nil
	}
	best, first := -1, -1
	w, vis := 0.0, 0.0
	for j := i0 + 1; j <= lim; j++ {
		w += m.adv[j-1]
		if !isWhitespace(m.text[j-1]) {
			vis = w
		}
		if j < lim && m.breaks[j] == breakNone {
			continue
		}
		if first < 0 {
			first = j
		}
		if vis > width+fitSlack {
			break
		}
		best = j
		if j < lim && m.breaks[j] == breakMust {
			break
		}
	}
	if best < 0 {
		if requireNextWord {
			return nil
		}
		w = 0
		for k := i0 + 1; k <= first; k++ {
			w += m.adv[k-1]
			if !m.stops[k] && k < first {
				continue
			}
			if best < 0 || w <= width+fitSlack {
				best = k
			}
			if w > width+fitSlack {
				break
			}
		}
	}
	r := newRun(m.text[i0:best], m.styles[i0:best], m.adv[i0:best], m.levels[i0:best], m.stops[i0:best+1], m.breaks[i0:best+1], m.base, m.metricsOf)
	m.pos = m.start + best
	return r
}

// Matches reports whether r, measured earlier from the characters now at
// pos, still agrees with the paragraph's analysis: the same text, paragraph
// level, embedding levels, caret stops and break opportunities. A run
// that matches would be measured the same way again, given unchanged
// character styles.
func (m *Measurer) Matches(pos int, r *Run) bool {
	i0 := pos - m.start
	n := r.Len()
	if i0 < 0 || i0+n > len(m.text) || r.base != m.base {
		return false
	}
	trail := n
	for trail > 0 && isWhitespace(m.text[i0+trail-1]) {
		trail--
	}
	for j := 0; j < n; j++ {
		level := m.levels[i0+j]
		if j >= trail {
			level = m.base
		}
		if r.text[j] != m.text[i0+j] || r.levels[j] != level {
			return false
		}
	}
	for j := 0; j <= n; j++ {
		if r.stops[j] != m.stops[i0+j] || r.breaks[j] != m.breaks[i0+j] {
			return false
		}
	}
	return true
}

// InsertChar patches the measurer after the character at pos was inserted
// into its paragraph, now [start,limit) of src.
func (m *Measurer) InsertChar(src document.Source, start, limit, pos int) error {
	if start != m.start || limit-start != len(m.text)+1 || pos < start || pos >= limit {
		return ErrOutOfSync
	}
	i := pos - start
	m.text = insertAt(m.text, i, src.CharAt(pos))
	m.styles = insertAt(m.styles, i, src.CharStyleAt(pos))
	m.adv = insertAt(m.adv, i, 0)
	m.adv[i] = m.measure(i)
	if i+1 < len(m.text) {
		m.adv[i+1] = m.measure(i + 1)
	}
	return m.resync(src, pos)
}

// DeleteChar patches the measurer after the character at pos was removed
// from its paragraph, now [start,limit) of src.
func (m *Measurer) DeleteChar(src document.Source, start, limit, pos int) error {
	if start != m.start || limit-start != len(m.text)-1 || pos < start || pos > limit {
		return ErrOutOfSync
	}
	i := pos - start
	m.text = append(m.text[:i], m.text[i+1:]...)
	m.styles = append(m.styles[:i], m.styles[i+1:]...)
	m.adv = append(m.adv[:i], m.adv[i+1:]...)
	if i < len(m.text) {
		m.adv[i] = m.measure(i)
	}
	return m.resync(src, pos)
}

// resync re-analyzes and checks the characters around pos against src.
func (m *Measurer) resync(src document.Source, pos int) error {
	m.analyze()
	m.pos = m.start
	for k := max(pos-1, m.start); k <= min(pos+1, m.Limit()-1); k++ {
		if src.CharAt(k) != m.text[k-m.start] {
			return ErrOutOfSync
		}
	}
	return nil
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// FirstBreak returns the first line-break opportunity after start within
// [start,limit) of src, or limit if there is none.
func FirstBreak(src document.Source, start, limit int) int {
	rs := make([]rune, 0, min(limit-start, 256))
	for i := start; i < limit && len(rs) < 256; i++ {
		rs = append(rs, src.CharAt(i))
	}
	s := string(rs)
	state := -1
	pos := start
	for len(s) > 0 {
		var (
			c          string
			boundaries int
		)
		c, s, boundaries, state = uniseg.StepString(s, state)
		pos += utf8.RuneCountInString(c)
		if boundaries&uniseg.MaskLine != uniseg.LineDontBreak && len(s) > 0 {
			return pos
		}
	}
	return limit
}
