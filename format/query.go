package format

import (
	"fmt"
	"math"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/layout"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
	"github.com/ByLCY/papyrus-text/textpos"
)

// Selection is a character range to highlight when drawing.
type Selection struct {
	Start, Limit int
	Color        style.Color
}

// 坐标换算。排版坐标以正文顶部为 y=0 向下增长；调用方坐标由 origin 和
// Fill 决定。BottomToTop 时 origin 是正文底边，行序自下而上，但行内
// 坐标不翻转。

func (f *Formatter) toLayout(p, origin geom.Point) geom.Point {
	if f.opts.Fill == BottomToTop {
		return geom.Point{X: p.X - origin.X, Y: origin.Y - p.Y}
	}
	return p.Sub(origin)
}

// toCaller converts a layout band to caller coordinates.
func (f *Formatter) toCaller(r geom.Rect, origin geom.Point) geom.Rect {
	if r.Empty() {
		return geom.Rect{}
	}
	if f.opts.Fill == BottomToTop {
		return geom.Rect{X: origin.X + r.X, Y: origin.Y - r.MaxY(), W: r.W, H: r.H}
	}
	return r.Translate(origin)
}

// lineOrigin returns the caller position of the top-left of line i.
func (f *Formatter) lineOrigin(i int, origin geom.Point) geom.Point {
	top := float64(f.lineTop(i))
	if f.opts.Fill == BottomToTop {
		return geom.Point{X: origin.X, Y: origin.Y - top - float64(f.line(i).Height())}
	}
	return geom.Point{X: origin.X, Y: origin.Y + top}
}

// layoutExtent returns the layout height needed to cover view.
func (f *Formatter) layoutExtent(view geom.Rect, origin geom.Point) int {
	if f.opts.Fill == BottomToTop {
		return int(math.Ceil(origin.Y - view.Y))
	}
	return int(math.Ceil(view.MaxY() - origin.Y))
}

// band returns the full-width layout rectangle between y0 and y1.
func (f *Formatter) band(y0, y1 int) geom.Rect {
	if y1 <= y0 {
		return geom.Rect{}
	}
	w := f.opts.Width
	if !f.opts.Wrap {
		w = unboundedWidth
	}
	return geom.Rect{Y: float64(y0), W: w, H: float64(y1 - y0)}
}

// lineContaining returns the line holding the caret at pos. A position
// biased before a line start belongs to the end of the previous line,
// unless that line ends its paragraph.
func (f *Formatter) lineContaining(pos textpos.Position) int {
	f.formatToOffset(pos.Offset)
	i := max(f.lines.Find(colChar, pos.Offset, f.totals()), 0)
	if pos.Bias == textpos.Before && i > 0 && pos.Offset == f.lineStart(i) &&
		f.src.CharAt(pos.Offset-1) != document.ParagraphSeparator {
		i--
	}
	return i
}

// lineAt returns line i, formatting on demand. It panics if the document
// has fewer lines.
func (f *Formatter) lineAt(op string, i int) int {
	for i >= f.lines.Len() && !f.complete {
		f.formatToOffset(f.frontier())
	}
	if i < 0 || i >= f.lines.Len() {
		panic(fmt.Sprintf("format: %s: line %d out of range [0,%d)", op, i, f.lines.Len()))
	}
	return i
}

// Draw paints the lines intersecting view, and the selection highlight
// under them when sel is not nil.
func (f *Formatter) Draw(s shaping.Surface, view geom.Rect, origin geom.Point, sel *Selection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("Draw")
	if view.Empty() {
		return
	}
	f.formatToHeight(f.layoutExtent(view, origin))

	y0, y1 := view.Y-origin.Y, view.MaxY()-origin.Y
	if f.opts.Fill == BottomToTop {
		y0, y1 = origin.Y-view.MaxY(), origin.Y-view.Y
	}
	s.Save()
	defer s.Restore()
	s.Clip(view)
	for i := max(f.lines.Find(colPixel, int(math.Floor(y0)), f.totals()), 0); i < f.lines.Len(); i++ {
		if float64(f.lineTop(i)) >= y1 {
			break
		}
		l, start, o := f.line(i), f.lineStart(i), f.lineOrigin(i, origin)
		if sel != nil && sel.Start < sel.Limit {
			rs := l.HighlightShape(start, sel.Start, sel.Limit)
			for k := range rs {
				rs[k] = rs[k].Translate(o)
			}
			if len(rs) > 0 {
				s.Fill(rs, sel.Color)
			}
		}
		l.Draw(s, o.X, o.Y)
	}
}

// PointToTextOffset returns the text position at p. With infinite set,
// points above the text map to the start and points below it to the end;
// otherwise they are clamped to the first or last line. When the result
// lands on anchor's offset it takes anchor's bias.
func (f *Formatter) PointToTextOffset(p, origin geom.Point, anchor *textpos.Position, infinite bool) textpos.Position {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("PointToTextOffset")

	lp := f.toLayout(p, origin)
	y := int(math.Floor(lp.Y))
	f.formatToHeight(max(y+1, 1))
	var res textpos.Position
	switch {
	case y < 0 && infinite:
		res = textpos.New(0, textpos.After)
	case y >= f.height() && infinite:
		res = textpos.New(f.src.Len(), textpos.Before)
	default:
		i := min(max(f.lines.Find(colPixel, y, f.totals()), 0), f.lines.Len()-1)
		res = f.line(i).PixelToOffset(f.lineStart(i), lp.X)
	}
	if anchor != nil && anchor.Offset == res.Offset {
		res.Bias = anchor.Bias
	}
	return res
}

// CaretRect returns the caret rectangle for pos.
func (f *Formatter) CaretRect(pos textpos.Position, origin geom.Point) geom.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("CaretRect")
	f.checkOffset("CaretRect", pos.Offset)
	return f.caretRect(pos, origin)
}

func (f *Formatter) caretRect(pos textpos.Position, origin geom.Point) geom.Rect {
	i := f.lineContaining(pos)
	return f.line(i).CaretBounds(f.lineStart(i), pos).Translate(f.lineOrigin(i, origin))
}

// DrawCaret fills the caret for pos.
func (f *Formatter) DrawCaret(s shaping.Surface, pos textpos.Position, origin geom.Point, c style.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("DrawCaret")
	f.checkOffset("DrawCaret", pos.Offset)
	i := f.lineContaining(pos)
	o := f.lineOrigin(i, origin)
	f.line(i).DrawCaret(s, f.lineStart(i), pos, o.X, o.Y, c)
}

// BoundingRect returns the box of the lines from the one holding p1 to
// the one holding p2. Tight boxes cover the lines' glyphs; otherwise the
// box spans the fill width.
func (f *Formatter) BoundingRect(p1, p2 textpos.Position, origin geom.Point, tight bool) geom.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("BoundingRect")
	f.checkOffset("BoundingRect", p1.Offset)
	f.checkOffset("BoundingRect", p2.Offset)
	if p2.Less(p1) {
		p1, p2 = p2, p1
	}
	a, b := f.lineContaining(p1), f.lineContaining(p2)
	if !tight {
		r := geom.Rect{Y: float64(f.lineTop(a)), W: f.opts.Width}
		r.H = float64(f.lineTop(b)+f.line(b).Height()) - r.Y
		return f.toCaller(r, origin)
	}
	var r geom.Rect
	for i := a; i <= b; i++ {
		lb := f.line(i).Bounds()
		if lb.W == 0 {
			lb.W = 1
		}
		r = r.Union(lb.Translate(f.lineOrigin(i, origin)))
	}
	return r
}

// FindInsertionOffset moves the caret at previous one step in dir. For
// vertical moves the column is taken from initial, the position where the
// run of vertical moves began.
func (f *Formatter) FindInsertionOffset(initial, previous textpos.Position, dir Move) textpos.Position {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("FindInsertionOffset")
	f.checkOffset("FindInsertionOffset", previous.Offset)

	i := f.lineContaining(previous)
	l, start := f.line(i), f.lineStart(i)
	switch dir {
	case MoveLeft, MoveRight:
		right := dir == MoveRight
		if next, ok := l.NextOffset(start, previous, right); ok {
			return next
		}
		if right == l.LeftToRight {
			return f.nextLineStart(i, previous)
		}
		return f.previousLineEnd(i, previous)
	case MoveUp, MoveDown:
		j := i - 1
		if dir == MoveDown {
			j = i + 1
			if j >= f.lines.Len() {
				f.formatToOffset(f.frontier())
			}
		}
		if j < 0 || j >= f.lines.Len() {
			return previous
		}
		f.checkOffset("FindInsertionOffset", initial.Offset)
		k := f.lineContaining(initial)
		x := f.line(k).StrongCaretX(f.lineStart(k), initial.Offset)
		return f.line(j).PixelToOffset(f.lineStart(j), x)
	}
	panic(fmt.Sprintf("format: FindInsertionOffset: unknown move %d", dir))
}

func (f *Formatter) nextLineStart(i int, previous textpos.Position) textpos.Position {
	if i+1 >= f.lines.Len() {
		f.formatToOffset(f.frontier())
	}
	if i+1 >= f.lines.Len() {
		return previous
	}
	return textpos.New(f.lineStart(i+1), textpos.After)
}

func (f *Formatter) previousLineEnd(i int, previous textpos.Position) textpos.Position {
	if i == 0 {
		return previous
	}
	start := f.lineStart(i)
	if f.src.CharAt(start-1) == document.ParagraphSeparator {
		return textpos.New(start-1, textpos.Before)
	}
	return textpos.New(start, textpos.Before)
}

// LineCount formats the whole document and returns its number of lines.
func (f *Formatter) LineCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineCount")
	f.formatAll()
	return f.lines.Len()
}

// LineContaining returns the index of the line holding the caret at pos.
func (f *Formatter) LineContaining(pos textpos.Position) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineContaining")
	f.checkOffset("LineContaining", pos.Offset)
	return f.lineContaining(pos)
}

// LineRangeLow returns the offset of the first character of line i.
func (f *Formatter) LineRangeLow(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineRangeLow")
	return f.lineStart(f.lineAt("LineRangeLow", i))
}

// LineRangeLimit returns the offset just past line i.
func (f *Formatter) LineRangeLimit(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineRangeLimit")
	i = f.lineAt("LineRangeLimit", i)
	return f.lineStart(i) + f.line(i).CharLength
}

// LineAtHeight returns the line at distance y below the top of the text,
// clamped to the first and last line.
func (f *Formatter) LineAtHeight(y float64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineAtHeight")
	h := int(math.Floor(y))
	f.formatToHeight(max(h+1, 1))
	return min(max(f.lines.Find(colPixel, h, f.totals()), 0), f.lines.Len()-1)
}

// LineGraphicStart returns the distance from the top of the text to the
// top of line i.
func (f *Formatter) LineGraphicStart(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineGraphicStart")
	return f.lineTop(f.lineAt("LineGraphicStart", i))
}

// LineIsLeftToRight reports the base direction of line i.
func (f *Formatter) LineIsLeftToRight(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("LineIsLeftToRight")
	return f.line(f.lineAt("LineIsLeftToRight", i)).LeftToRight
}

// FormattedHeight returns the height of the lines formatted so far.
func (f *Formatter) FormattedHeight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("FormattedHeight")
	return f.height()
}

// FormatToOffset formats until the line holding pos exists.
func (f *Formatter) FormatToOffset(pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("FormatToOffset")
	f.checkOffset("FormatToOffset", pos)
	f.formatToOffset(pos)
}

// MinX formats the whole document and returns the leftmost x of its lines.
func (f *Formatter) MinX() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("MinX")
	f.formatAll()
	x := math.Inf(1)
	f.eachLine(func(l *layout.Line) { x = math.Min(x, l.Bounds().X) })
	if math.IsInf(x, 1) {
		return 0
	}
	return x
}

// MaxX formats the whole document and returns the rightmost x of its lines.
func (f *Formatter) MaxX() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("MaxX")
	f.formatAll()
	x := math.Inf(-1)
	f.eachLine(func(l *layout.Line) { x = math.Max(x, l.Bounds().MaxX()) })
	if math.IsInf(x, -1) {
		return 0
	}
	return x
}

func (f *Formatter) eachLine(fn func(*layout.Line)) {
	for i := 0; i < f.lines.Len(); i++ {
		fn(f.line(i))
	}
}
