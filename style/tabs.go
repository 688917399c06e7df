package style

import (
	"fmt"
	"math"
	"strings"
)

// TabKind is the alignment of text following a tab stop.
type TabKind int

const (
	TabLeading TabKind = iota
	TabCenter
	TabTrailing
	// TabDecimal aligns like TabTrailing; no decimal point is searched for.
	TabDecimal
	// TabAuto marks the evenly spaced stops past the last explicit one.
	TabAuto
)

func (k TabKind) String() string {
	switch k {
	case TabCenter:
		return "center"
	case TabTrailing:
		return "trailing"
	case TabDecimal:
		return "decimal"
	case TabAuto:
		return "auto"
	default:
		return "leading"
	}
}

// ParseTabKind parses a tab kind name.
func ParseTabKind(s string) (TabKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "leading", "left":
		return TabLeading, nil
	case "center":
		return TabCenter, nil
	case "trailing", "right":
		return TabTrailing, nil
	case "decimal":
		return TabDecimal, nil
	case "auto":
		return TabAuto, nil
	}
	return TabLeading, fmt.Errorf("未知的制表位类型 %q", s)
}

// TabStop is a position along the line and the alignment applied there.
type TabStop struct {
	Position float64 `json:"position"`
	Kind     TabKind `json:"kind"`
}

// MaxTabStops is the number of explicit stops a ruler can hold.
const MaxTabStops = 16

// TabRuler is an ordered list of explicit tab stops followed by automatic
// stops every Interval pixels. It is a fixed-size value so that paragraph
// styles stay comparable.
type TabRuler struct {
	stops    [MaxTabStops]TabStop
	n        int
	Interval float64
}

// DefaultTabRuler has no explicit stops and an automatic stop every 36px.
var DefaultTabRuler = TabRuler{Interval: 36}

// NewTabRuler returns a ruler with the given stops, which must have
// strictly increasing positions.
func NewTabRuler(interval float64, stops ...TabStop) (TabRuler, error) {
	var r TabRuler
	if interval <= 0 {
		return r, fmt.Errorf("制表位间隔必须为正数: %g", interval)
	}
	if len(stops) > MaxTabStops {
		return r, fmt.Errorf("制表位数量 %d 超过上限 %d", len(stops), MaxTabStops)
	}
	for i, s := range stops {
		if s.Position < 0 {
			return r, fmt.Errorf("制表位位置不能为负: %g", s.Position)
		}
		if i > 0 && s.Position <= stops[i-1].Position {
			return r, fmt.Errorf("制表位必须严格递增: %g 之后是 %g", stops[i-1].Position, s.Position)
		}
		r.stops[i] = s
	}
	r.n = len(stops)
	r.Interval = interval
	return r, nil
}

// Stops returns the explicit stops.
func (r TabRuler) Stops() []TabStop {
	out := make([]TabStop, r.n)
	copy(out, r.stops[:r.n])
	return out
}

// NextTab returns the first stop at or beyond pos. Past the last explicit
// stop, automatic leading stops are generated every Interval pixels.
func (r TabRuler) NextTab(pos float64) TabStop {
	for i := 0; i < r.n; i++ {
		if r.stops[i].Position >= pos {
			return r.stops[i]
		}
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultTabRuler.Interval
	}
	base := 0.0
	if r.n > 0 {
		base = r.stops[r.n-1].Position
	}
	k := math.Ceil((pos - base) / interval)
	if k < 1 {
		k = 1
	}
	next := base + k*interval
	return TabStop{Position: next, Kind: TabAuto}
}
