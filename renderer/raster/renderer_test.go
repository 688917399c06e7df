package raster

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/renderer"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

var white = style.Color{R: 255, G: 255, B: 255, A: 255}

func newFormatter(text string, width float64) *format.Formatter {
	cs := style.Char{Family: "go", Size: 12, Color: style.Black}
	d := document.NewWithStyles(cs, style.DefaultParagraph)
	d.Insert(0, document.NewPlain(text, cs, style.DefaultParagraph))
	return format.New(d, shaping.NewGoFonts(), format.Options{Width: width, Wrap: true})
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// darkPixels counts pixels darker than mid grey inside r.
func darkPixels(img image.Image, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca > 0x8000 && (cr+cg+cb)/3 < 0x8000 {
				n++
			}
		}
	}
	return n
}

func TestRenderSinglePage(t *testing.T) {
	f := newFormatter("Hello, world", 200)
	out, err := New(Options{}).Render(f, renderer.Page{Width: 220, Height: 60, Margin: 10, Background: white})
	require.NoError(t, err)

	img := decode(t, out)
	assert.Equal(t, image.Rect(0, 0, 220, 60), img.Bounds())
	assert.Greater(t, darkPixels(img, image.Rect(10, 10, 210, 30)), 20)
	// 边距内不应有文字
	assert.Zero(t, darkPixels(img, image.Rect(0, 0, 220, 9)))
	assert.Zero(t, darkPixels(img, image.Rect(0, 32, 220, 60)))
}

func TestRenderStacksPages(t *testing.T) {
	f := newFormatter(strings.Repeat("page filler text ", 30), 100)
	page := renderer.Page{Width: 120, Height: 80, Margin: 10, Background: white}
	n := len(page.Sheets(f))
	require.Greater(t, n, 1)

	out, err := New(Options{Scale: 2}).Render(f, page)
	require.NoError(t, err)
	img := decode(t, out)
	assert.Equal(t, 240, img.Bounds().Dx())
	assert.Equal(t, n*160+(n-1)*PageGap*2, img.Bounds().Dy())
}

func TestRenderSupersampleKeepsSize(t *testing.T) {
	f := newFormatter("Smooth", 100)
	sel := &format.Selection{Start: 0, Limit: 3, Color: style.Color{B: 255, A: 255}}
	out, err := New(Options{Supersample: true}).Render(f, renderer.Page{Width: 120, Height: 40, Margin: 10, Background: white, Selection: sel})
	require.NoError(t, err)
	img := decode(t, out)
	assert.Equal(t, image.Rect(0, 0, 120, 40), img.Bounds())

	// 基线以下只有选区高亮，应为蓝色
	r, g, b, _ := img.At(15, 22).RGBA()
	assert.Greater(t, b, r+g)
}

func TestRenderRejectsBadPage(t *testing.T) {
	_, err := New(Options{}).Render(newFormatter("x", 10), renderer.Page{Width: 10, Height: 10, Margin: 5})
	assert.Error(t, err)
}
