// Package shaping measures styled text: it turns a paragraph into runs that
// fit a width budget, and answers hit-testing and caret questions about
// those runs.
package shaping

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/papyrus-text/fonts"
	"github.com/ByLCY/papyrus-text/style"
)

// Metrics are the vertical extents of a face in pixels.
type Metrics struct {
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
	Leading float64 `json:"leading"`
}

// Face measures the glyphs of one font at one size.
type Face interface {
	Advance(r rune) float64
	// Kern is the adjustment between prev and r.
	Kern(prev, r rune) float64
	Metrics() Metrics
}

// FaceProvider resolves character styles to faces. Implementations fall
// back to a usable face rather than fail.
type FaceProvider interface {
	Face(cs style.Char) Face
}

// DefaultMetrics returns the metrics used for an empty line in style cs.
func DefaultMetrics(p FaceProvider, cs style.Char) Metrics {
	return p.Face(cs).Metrics()
}

// ZeroAdvance reports characters that take no horizontal space.
func ZeroAdvance(r rune) bool {
	switch r {
	case '\t', '\n', '\r', '\u2028', '\u2029', '\u200b':
		return true
	}
	return r < 0x20
}

// GoFonts measures with the bundled Go fonts through x/image/font/opentype.
type GoFonts struct {
	mu     sync.Mutex
	parsed map[string]*opentype.Font
	faces  map[string]*goFace
}

// NewGoFonts returns a provider over the bundled Go fonts.
func NewGoFonts() *GoFonts {
	return &GoFonts{parsed: map[string]*opentype.Font{}, faces: map[string]*goFace{}}
}

var _ FaceProvider = (*GoFonts)(nil)

// Face implements FaceProvider.
func (g *GoFonts) Face(cs style.Char) Face {
	key := cs.Key()
	g.mu.Lock()
	defer g.mu.Unlock()
	if f, ok := g.faces[key]; ok {
		return f
	}
	face, err := g.newFace(cs)
	if err != nil {
		// the bundled fonts always parse; reaching this is a build problem
		panic(fmt.Sprintf("shaping: GoFonts: %v", err))
	}
	f := &goFace{face: face}
	g.faces[key] = f
	return f
}

func (g *GoFonts) newFace(cs style.Char) (font.Face, error) {
	name := fonts.Name(cs.Family, cs.Bold, cs.Italic)
	otf, ok := g.parsed[name]
	if !ok {
		data, err := fonts.Load(name)
		if err != nil {
			return nil, err
		}
		otf, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
		}
		g.parsed[name] = otf
	}
	size := cs.Size
	if size <= 0 {
		size = style.DefaultChar.Size
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("创建字体 %s 失败: %w", name, err)
	}
	return face, nil
}

// goFace adapts a font.Face, which is not safe for concurrent use.
type goFace struct {
	mu   sync.Mutex
	face font.Face
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func (f *goFace) Advance(r rune) float64 {
	if ZeroAdvance(r) {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	adv, ok := f.face.GlyphAdvance(r)
	if !ok {
		adv, _ = f.face.GlyphAdvance('\ufffd')
	}
	return fixedToFloat(adv)
}

func (f *goFace) Kern(prev, r rune) float64 {
	if ZeroAdvance(prev) || ZeroAdvance(r) {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fixedToFloat(f.face.Kern(prev, r))
}

func (f *goFace) Metrics() Metrics {
	f.mu.Lock()
	m := f.face.Metrics()
	f.mu.Unlock()
	a, d := fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
	return Metrics{Ascent: a, Descent: d, Leading: math.Max(fixedToFloat(m.Height)-a-d, 0)}
}

// FixedFaces gives every visible character the same advance. Metrics scale
// with the style's size relative to 10px. It is meant for tests and for
// terminal-like output.
type FixedFaces struct {
	Width   float64 // advance at size 10
	Metrics Metrics // at size 10
}

var _ FaceProvider = FixedFaces{}

// NewFixedFaces returns a provider whose characters are width pixels wide
// at size 10.
func NewFixedFaces(width float64) FixedFaces {
	return FixedFaces{Width: width, Metrics: Metrics{Ascent: 8, Descent: 2, Leading: 1}}
}

// Face implements FaceProvider.
func (p FixedFaces) Face(cs style.Char) Face {
	scale := cs.Size / 10
	if scale <= 0 {
		scale = 1
	}
	return fixedFace{
		width: p.Width * scale,
		m: Metrics{
			Ascent:  p.Metrics.Ascent * scale,
			Descent: p.Metrics.Descent * scale,
			Leading: p.Metrics.Leading * scale,
		},
	}
}

type fixedFace struct {
	width float64
	m     Metrics
}

func (f fixedFace) Advance(r rune) float64 {
	if ZeroAdvance(r) {
		return 0
	}
	return f.width
}

func (fixedFace) Kern(rune, rune) float64 { return 0 }
func (f fixedFace) Metrics() Metrics      { return f.m }
