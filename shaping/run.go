package shaping

import (
	"math"
	"slices"

	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/style"
	"github.com/ByLCY/papyrus-text/textpos"
)

// Run is a measured, immutable piece of a line. Character indexes are
// relative to the run; x coordinates are relative to its left edge.
type Run struct {
	text   []rune
	styles []style.Char
	adv    []float64
	levels []uint8
	stops  []bool  // len(text)+1; a caret may stop before i
	breaks []uint8 // len(text)+1; break opportunity before i
	base   uint8

	order []int     // visual position -> character
	x     []float64 // left edge of each character

	ascent, descent, leading float64
	advance, visible         float64
}

// Hit is the result of hit-testing: a character and the edge that was hit.
type Hit struct {
	Char    int
	Leading bool
}

// Insertion returns the insertion offset designated by h.
func (h Hit) Insertion() int {
	if h.Leading {
		return h.Char
	}
	return h.Char + 1
}

// Span is a horizontal interval.
type Span struct {
	X0, X1 float64
}

func newRun(text []rune, styles []style.Char, adv []float64, levels []uint8, stops []bool, breaks []uint8, base uint8, metrics func(style.Char) Metrics) *Run {
	r := &Run{
		text:   slices.Clone(text),
		styles: slices.Clone(styles),
		adv:    slices.Clone(adv),
		levels: slices.Clone(levels),
		stops:  slices.Clone(stops),
		breaks: slices.Clone(breaks),
		base:   base,
	}
	// trailing whitespace takes the paragraph level
	for i := len(r.text) - 1; i >= 0 && isWhitespace(r.text[i]); i-- {
		r.levels[i] = base
	}
	seen := map[style.Char]bool{}
	var below float64
	for _, cs := range r.styles {
		if seen[cs] {
			continue
		}
		seen[cs] = true
		m := metrics(cs)
		r.ascent = math.Max(r.ascent, m.Ascent)
		r.descent = math.Max(r.descent, m.Descent)
		below = math.Max(below, m.Descent+m.Leading)
	}
	r.leading = below - r.descent
	r.layout()
	return r
}

func (r *Run) layout() {
	r.order = visualOrder(r.text, r.levels, r.base)
	r.x = make([]float64, len(r.text))
	x := 0.0
	for _, i := range r.order {
		r.x[i] = x
		x += r.adv[i]
	}
	r.advance = x
	r.visible = x
	for i := len(r.text) - 1; i >= 0 && isWhitespace(r.text[i]); i-- {
		r.visible -= r.adv[i]
	}
}

func (r *Run) Len() int                { return len(r.text) }
func (r *Run) CharAt(i int) rune       { return r.text[i] }
func (r *Run) Ascent() float64         { return r.ascent }
func (r *Run) Descent() float64        { return r.descent }
func (r *Run) Leading() float64        { return r.leading }
func (r *Run) Advance() float64        { return r.advance }
func (r *Run) VisibleAdvance() float64 { return r.visible }

// LeftToRight reports the direction of the paragraph the run came from.
func (r *Run) LeftToRight() bool { return r.base&1 == 0 }

// Text returns the characters in logical order.
func (r *Run) Text() string { return string(r.text) }

// Bounds returns the run's box relative to its baseline origin.
func (r *Run) Bounds() geom.Rect {
	return geom.Rect{X: 0, Y: -r.ascent, W: r.advance, H: r.ascent + r.descent}
}

func (r *Run) ltr(i int) bool { return r.levels[i]&1 == 0 }

func (r *Run) leadingEdge(i int) float64 {
	if r.ltr(i) {
		return r.x[i]
	}
	return r.x[i] + r.adv[i]
}

func (r *Run) trailingEdge(i int) float64 {
	if r.ltr(i) {
		return r.x[i] + r.adv[i]
	}
	return r.x[i]
}

// cluster is a grapheme cluster with its visual extent.
type cluster struct {
	start, limit int
	left, right  float64
	ltr          bool
}

// clusters returns the hittable clusters in visual order.
func (r *Run) clusters() []cluster {
	var out []cluster
	last := -1
	for _, i := range r.order {
		a := i
		for a > 0 && !r.stops[a] {
			a--
		}
		if a == last {
			c := &out[len(out)-1]
			c.left = math.Min(c.left, r.x[i])
			c.right = math.Max(c.right, r.x[i]+r.adv[i])
			continue
		}
		last = a
		b := i + 1
		for b < len(r.text) && !r.stops[b] {
			b++
		}
		if b-a == 1 && isSeparator(r.text[a]) {
			continue
		}
		out = append(out, cluster{start: a, limit: b, left: r.x[i], right: r.x[i] + r.adv[i], ltr: r.ltr(a)})
	}
	return out
}

// HitTest returns the character edge closest to x.
func (r *Run) HitTest(x float64) Hit {
	cs := r.clusters()
	if len(cs) == 0 {
		return Hit{Char: 0, Leading: true}
	}
	edge := func(c cluster, left bool) Hit {
		if left == c.ltr {
			return Hit{Char: c.start, Leading: true}
		}
		return Hit{Char: c.limit - 1, Leading: false}
	}
	if x < cs[0].left {
		return edge(cs[0], true)
	}
	for _, c := range cs {
		if x >= c.left && x < c.right {
			return edge(c, x < (c.left+c.right)/2)
		}
	}
	return edge(cs[len(cs)-1], false)
}

// CaretX returns the x of the caret at insertion offset i with bias b.
func (r *Run) CaretX(i int, b textpos.Bias) float64 {
	n := len(r.text)
	switch {
	case n == 0:
		return 0
	case i <= 0 || (b == textpos.After && i < n):
		return r.leadingEdge(max(i, 0))
	default:
		return r.trailingEdge(min(i, n) - 1)
	}
}

// carets returns the caret stops in visual order from left to right.
func (r *Run) carets() []int {
	var out []int
	push := func(i int) {
		if len(out) == 0 || out[len(out)-1] != i {
			out = append(out, i)
		}
	}
	for _, c := range r.clusters() {
		if c.ltr {
			push(c.start)
			push(c.limit)
		} else {
			push(c.limit)
			push(c.start)
		}
	}
	return out
}

// NextCaret moves visually from insertion offset i. It reports false when
// no further stop lies in that direction within the run.
func (r *Run) NextCaret(i int, right bool) (int, bool) {
	cs := r.carets()
	k := slices.Index(cs, i)
	if k < 0 {
		return i, false
	}
	if right {
		k++
	} else {
		k--
	}
	if k < 0 || k >= len(cs) {
		return i, false
	}
	return cs[k], true
}

// Ranges returns the visual extent of characters [a,b) as merged spans.
func (r *Run) Ranges(a, b int) []Span {
	var out []Span
	for _, i := range r.order {
		if i < a || i >= b {
			continue
		}
		x0, x1 := r.x[i], r.x[i]+r.adv[i]
		if n := len(out); n > 0 && math.Abs(out[n-1].X1-x0) < 1e-9 {
			out[n-1].X1 = x1
			continue
		}
		out = append(out, Span{X0: x0, X1: x1})
	}
	return out
}

// Justify returns a run whose visible advance is stretched to width by
// widening interior spaces. r is returned when nothing can be stretched.
func (r *Run) Justify(width float64) *Run {
	extra := width - r.visible
	if extra <= 0 {
		return r
	}
	end := len(r.text)
	for end > 0 && isWhitespace(r.text[end-1]) {
		end--
	}
	var spaces []int
	for i := 0; i < end; i++ {
		if isSpace(r.text[i]) && r.adv[i] > 0 {
			spaces = append(spaces, i)
		}
	}
	if len(spaces) == 0 {
		return r
	}
	j := *r
	j.adv = slices.Clone(r.adv)
	per := extra / float64(len(spaces))
	for _, i := range spaces {
		j.adv[i] += per
	}
	j.layout()
	return &j
}

// Draw paints the run with its left edge at x and its baseline at y.
func (r *Run) Draw(s Surface, x, y float64) {
	n := len(r.order)
	for v := 0; v < n; {
		i := r.order[v]
		if ZeroAdvance(r.text[i]) {
			v++
			continue
		}
		cs := r.styles[i]
		w := v
		var piece []rune
		left := r.x[i]
		right := left
		for w < n {
			k := r.order[w]
			if ZeroAdvance(r.text[k]) || r.styles[k] != cs || r.ltr(k) != r.ltr(i) {
				break
			}
			piece = append(piece, r.text[k])
			right = r.x[k] + r.adv[k]
			w++
		}
		s.DrawText(x+left, y, cs, string(piece))
		if cs.Underline {
			thick := math.Max(1, cs.Size/16)
			s.Fill([]geom.Rect{{X: x + left, Y: y + thick, W: right - left, H: thick}}, cs.Color)
		}
		v = w
	}
}

// Equal reports whether two runs measure and place the same text.
func (r *Run) Equal(o *Run) bool {
	if r == nil || o == nil {
		return r == o
	}
	return slices.Equal(r.text, o.text) &&
		slices.Equal(r.styles, o.styles) &&
		slices.Equal(r.adv, o.adv) &&
		slices.Equal(r.levels, o.levels) &&
		slices.Equal(r.stops, o.stops) &&
		slices.Equal(r.breaks, o.breaks) &&
		r.base == o.base &&
		r.ascent == o.ascent && r.descent == o.descent && r.leading == o.leading
}
