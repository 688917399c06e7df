// Package layout formats one line of a paragraph at a time. A Line is a
// row of measured runs separated by tabs, together with the queries an
// editor needs to hit-test, place carets and highlight inside that line.
package layout

import (
	"math"

	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// Segment 是行内一段连续测量的文本，段与段之间由制表符分隔。
type Segment struct {
	Run    *shaping.Run `json:"-"`
	Start  int          `json:"start"`  // 相对行首的字符偏移
	Offset float64      `json:"offset"` // 距行首边距的距离（沿书写方向）
	Bounds geom.Rect    `json:"bounds"` // 相对段基线原点
}

// Limit returns the line-relative offset just past the segment.
func (s Segment) Limit() int { return s.Start + s.Run.Len() }

func (s Segment) endsWithTab() bool {
	n := s.Run.Len()
	return n > 0 && s.Run.CharAt(n-1) == '\t'
}

// Line 是一行排版结果。字符起点与像素起点不在这里保存，由格式化器的行表维护。
type Line struct {
	CharLength int `json:"charLength"`
	Ascent     int `json:"ascent"`
	Descent    int `json:"descent"`
	Leading    int `json:"leading"`

	VisibleAdvance float64 `json:"visibleAdvance"`
	TotalAdvance   float64 `json:"totalAdvance"`
	// LeadingMargin includes the first-line indent and the flush offset.
	LeadingMargin float64   `json:"leadingMargin"`
	Width         float64   `json:"width"`
	LeftToRight   bool      `json:"leftToRight"`
	Segments      []Segment `json:"segments"`
}

// Height is the distance from the top of the line to the top of the next.
func (l *Line) Height() int { return l.Ascent + l.Descent + l.Leading }

// Params are the inputs of FormatLine.
type Params struct {
	Style style.Paragraph
	// Measurer is positioned at the first character of the line. A nil
	// measurer yields a zero-length pseudo-line.
	Measurer *shaping.Measurer
	// Limit is the end of the paragraph.
	Limit     int
	Width     float64
	FirstLine bool
	// Default gives the metrics of an empty line.
	Default shaping.Metrics
}

// FormatLine lays out the next line of a paragraph and advances the
// measurer past it.
func FormatLine(p Params) *Line {
	ps := p.Style
	l := &Line{Width: p.Width, LeftToRight: ps.Direction != style.DirectionRightToLeft}
	margin := ps.LeadingMargin
	if p.FirstLine {
		margin += ps.FirstLineIndent
	}
	avail := p.Width - margin - ps.TrailingMargin

	if m := p.Measurer; m != nil {
		l.LeftToRight = m.LeftToRight()
		start := m.Position()
		l.Segments = placeSegments(ps.Tabs, m, p.Limit, avail)
		l.CharLength = m.Position() - start

		if n := len(l.Segments); n > 0 {
			last := &l.Segments[n-1]
			if ps.Flush == style.FlushJustified && m.Position() < p.Limit && !last.endsWithTab() {
				last.Run = last.Run.Justify(avail - last.Offset)
				last.Bounds = last.Run.Bounds()
			}
			l.VisibleAdvance = last.Offset + last.Run.VisibleAdvance()
			l.TotalAdvance = last.Offset + last.Run.Advance()
			if last.endsWithTab() {
				// 行尾制表符占据到下一个制表位
				next := ps.Tabs.NextTab(l.TotalAdvance).Position
				l.TotalAdvance = math.Max(l.TotalAdvance, math.Min(next, avail))
			}
		}
	}
	l.setMetrics(ps, p.Default)

	shift := 0.0
	switch ps.Flush {
	case style.FlushCenter:
		shift = (avail - l.VisibleAdvance) / 2
	case style.FlushTrailing:
		shift = avail - l.VisibleAdvance
	}
	l.LeadingMargin = margin + math.Max(shift, 0)
	return l
}

// placeSegments measures segments up to the end of the line. The first
// segment is always taken, however wide it is.
func placeSegments(tabs style.TabRuler, m *shaping.Measurer, limit int, avail float64) []Segment {
	start := m.Position()
	var (
		segs []Segment
		end  float64
		stop style.TabStop
	)
	for m.Position() < limit {
		budget := avail
		if len(segs) > 0 {
			stop = tabs.NextTab(end)
			if stop.Position > avail {
				break
			}
			switch stop.Kind {
			case style.TabCenter, style.TabTrailing, style.TabDecimal:
				budget = avail - end
			default:
				budget = avail - stop.Position
			}
		}
		pos := m.Position()
		r := m.NextRun(budget, m.TabLimit(limit), len(segs) > 0)
		if r == nil {
			break
		}
		x := 0.0
		if len(segs) > 0 {
			x = tabOffset(stop, end, r.VisibleAdvance())
		}
		seg := Segment{Run: r, Start: pos - start, Offset: x, Bounds: r.Bounds()}
		segs = append(segs, seg)
		end = x + r.Advance()
		if !seg.endsWithTab() {
			break
		}
	}
	return segs
}

// tabOffset places a segment of the given visible advance after a tab
// stop. The segment never starts before end, the previous segment's end.
func tabOffset(stop style.TabStop, end, visible float64) float64 {
	switch stop.Kind {
	case style.TabCenter:
		return math.Max(end, stop.Position-visible/2)
	case style.TabTrailing, style.TabDecimal:
		return math.Max(end, stop.Position-visible)
	}
	return math.Max(end, stop.Position)
}

func (l *Line) setMetrics(ps style.Paragraph, def shaping.Metrics) {
	asc, desc, below := def.Ascent, def.Descent, def.Descent+def.Leading
	if len(l.Segments) > 0 {
		asc, desc, below = 0, 0, 0
		for _, s := range l.Segments {
			asc = math.Max(asc, s.Run.Ascent())
			desc = math.Max(desc, s.Run.Descent())
			below = math.Max(below, s.Run.Descent()+s.Run.Leading())
		}
	}
	l.Ascent = int(math.Ceil(asc))
	l.Descent = int(math.Ceil(desc))
	l.Leading = int(math.Ceil(below)) - l.Descent
	l.Ascent += int(math.Ceil(ps.ExtraLineSpacing))
	if h := float64(l.Height()); h < ps.MinLineSpacing {
		l.Ascent += int(math.Ceil(ps.MinLineSpacing - h))
	}
	// 行高至少 1px，行表的像素键必须严格递增
	if h := l.Height(); h < 1 {
		l.Ascent += 1 - h
	}
}
