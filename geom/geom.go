// Package geom holds the float geometry shared by layout queries.
package geom

import "math"

// Point is a position in pixels; y grows downwards.
type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned rectangle with origin at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectFromCorners returns the rectangle spanning two corners in any order.
func RectFromCorners(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Empty reports whether r covers no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Translate returns r moved by p.
func (r Rect) Translate(p Point) Rect {
	return Rect{X: r.X + p.X, Y: r.Y + p.Y, W: r.W, H: r.H}
}

// Contains reports whether p lies inside r, including the top and left edges.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Union returns the smallest rectangle covering r and s. Empty operands are
// ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	return RectFromCorners(
		math.Min(r.X, s.X), math.Min(r.Y, s.Y),
		math.Max(r.MaxX(), s.MaxX()), math.Max(r.MaxY(), s.MaxY()),
	)
}

// Intersect returns the overlap of r and s, or the zero Rect.
func (r Rect) Intersect(s Rect) Rect {
	x0 := math.Max(r.X, s.X)
	y0 := math.Max(r.Y, s.Y)
	x1 := math.Min(r.MaxX(), s.MaxX())
	y1 := math.Min(r.MaxY(), s.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
