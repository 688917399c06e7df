// Package renderer 定义输出后端共用的页面模型与分页。
package renderer

import (
	"math"

	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// Content is formatted text that a renderer can page through.
// *format.Formatter implements it.
type Content interface {
	Draw(s shaping.Surface, view geom.Rect, origin geom.Point, sel *format.Selection)
	FormatToHeight(h int)
	FormattedHeight() int
	LineAtHeight(y float64) int
	LineGraphicStart(i int) int
}

var _ Content = (*format.Formatter)(nil)

// Renderer 将格式化结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(c Content, page Page) ([]byte, error)
}

// Page describes the output sheet in pixels (one pixel is one point).
// Text is laid out inside the margins; Fill must match the formatter's.
type Page struct {
	Width, Height float64
	Margin        float64
	Fill          format.Fill
	Background    style.Color
	Selection     *format.Selection
	Meta          Meta
}

// Meta is document information written by renderers that support it.
type Meta struct {
	Title, Subject, Author, Creator string
	Keywords                        []string
}

// Body returns the text area of the page.
func (p Page) Body() geom.Rect {
	return geom.Rect{X: p.Margin, Y: p.Margin, W: p.Width - 2*p.Margin, H: p.Height - 2*p.Margin}
}

// Origin returns the formatter origin that places the text starting at
// layout height start at the top (or, for BottomToTop, the bottom) of the
// body.
func (p Page) Origin(start float64) geom.Point {
	body := p.Body()
	if p.Fill == format.BottomToTop {
		return geom.Point{X: body.X, Y: body.MaxY() + start}
	}
	return geom.Point{X: body.X, Y: body.Y - start}
}

// Paginate formats all of c and returns the layout height at which each
// page begins. Pages break before the first line that does not fit; a line
// taller than a page is cut.
func Paginate(c Content, bodyHeight float64) []float64 {
	c.FormatToHeight(math.MaxInt)
	total := float64(c.FormattedHeight())
	starts := []float64{0}
	if bodyHeight <= 0 {
		return starts
	}
	for top := 0.0; top+bodyHeight < total; {
		next := float64(c.LineGraphicStart(c.LineAtHeight(top + bodyHeight)))
		if next <= top {
			next = top + bodyHeight
		}
		starts = append(starts, next)
		top = next
	}
	return starts
}

// View returns the clip rectangle for one page: the body, trimmed so that
// lines belonging to the next page are not drawn.
func (p Page) View(start, next float64) geom.Rect {
	body := p.Body()
	if h := next - start; h > 0 && h < body.H {
		if p.Fill == format.BottomToTop {
			body.Y = body.MaxY() - h
		}
		body.H = h
	}
	return body
}

// Sheet is one output page: the clip rectangle and the formatter origin to
// draw it with.
type Sheet struct {
	View   geom.Rect
	Origin geom.Point
}

// Sheets paginates c onto pages shaped like p.
func (p Page) Sheets(c Content) []Sheet {
	starts := Paginate(c, p.Body().H)
	out := make([]Sheet, len(starts))
	for i, start := range starts {
		next := math.Inf(1)
		if i+1 < len(starts) {
			next = starts[i+1]
		}
		out[i] = Sheet{View: p.View(start, next), Origin: p.Origin(start)}
	}
	return out
}

// State is the drawing state of a surface: a translation and an optional
// clip, both in page coordinates.
type State struct {
	DX, DY  float64
	Clip    geom.Rect
	Clipped bool
}

// Rect translates r into page coordinates and clips it.
func (s State) Rect(r geom.Rect) geom.Rect {
	r = r.Translate(geom.Point{X: s.DX, Y: s.DY})
	if s.Clipped {
		return r.Intersect(s.Clip)
	}
	return r
}

// Visible reports whether a horizontal band [top, bottom) in surface
// coordinates survives the clip.
func (s State) Visible(top, bottom float64) bool {
	if !s.Clipped {
		return true
	}
	return bottom+s.DY > s.Clip.Y && top+s.DY < s.Clip.MaxY()
}

// StateStack implements the Save/Restore/Translate/Clip half of
// shaping.Surface for backends without their own state stack.
type StateStack struct {
	State
	saved []State
}

func (s *StateStack) Save() { s.saved = append(s.saved, s.State) }

func (s *StateStack) Restore() {
	if n := len(s.saved); n > 0 {
		s.State = s.saved[n-1]
		s.saved = s.saved[:n-1]
	}
}

func (s *StateStack) Translate(dx, dy float64) {
	s.DX += dx
	s.DY += dy
}

// Clip narrows the clip to r, given in surface coordinates.
func (s *StateStack) Clip(r geom.Rect) {
	r = r.Translate(geom.Point{X: s.DX, Y: s.DY})
	if s.Clipped {
		r = r.Intersect(s.State.Clip)
	}
	s.State.Clip, s.Clipped = r, true
}
