package shaping

import (
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/style"
)

// Surface is the 2D drawing target. Coordinates are pixels with y growing
// downwards; y of DrawText is the baseline.
type Surface interface {
	// DrawText draws text, already in visual order, with its left edge at x.
	DrawText(x, y float64, cs style.Char, text string)
	// Fill paints the union of rects.
	Fill(rects []geom.Rect, c style.Color)
	Save()
	Restore()
	Translate(dx, dy float64)
	Clip(r geom.Rect)
}
