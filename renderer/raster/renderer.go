// Package raster renders formatted text to PNG with the bundled Go fonts.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/papyrus-text/fonts"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/renderer"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// PageGap is the space in pixels between stacked pages.
const PageGap = 8

// Options configures the raster renderer.
type Options struct {
	// Scale is the number of device pixels per layout pixel; 0 means 1.
	Scale float64
	// Supersample draws at twice the scale and downsamples with a
	// Lanczos filter, which smooths rules and highlight edges.
	Supersample bool
}

// Renderer draws every page into one PNG, pages stacked top to bottom.
// Text should be measured with shaping.GoFonts so glyphs land where the
// formatter placed them. Glyph faces are shared, so a Renderer must not
// run two Render calls at once.
type Renderer struct {
	opts Options

	mu     sync.Mutex
	parsed map[string]*opentype.Font
	faces  map[string]font.Face
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ shaping.Surface   = (*surface)(nil)
)

// New returns a raster renderer.
func New(opts Options) *Renderer {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	return &Renderer{opts: opts, parsed: map[string]*opentype.Font{}, faces: map[string]font.Face{}}
}

// Render implements renderer.Renderer and returns PNG bytes.
func (r *Renderer) Render(c renderer.Content, page renderer.Page) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("渲染内容为空")
	}
	if page.Width <= 0 || page.Height <= 0 || page.Body().Empty() {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g 边距 %g", page.Width, page.Height, page.Margin)
	}
	scale := r.opts.Scale
	if r.opts.Supersample {
		scale *= 2
	}

	sheets := page.Sheets(c)
	var pages []*image.NRGBA
	for _, sheet := range sheets {
		img := imaging.New(int(math.Ceil(page.Width*scale)), int(math.Ceil(page.Height*scale)), nrgba(page.Background))
		s := &surface{r: r, img: img, scale: scale}
		c.Draw(s, sheet.View, sheet.Origin, page.Selection)
		if s.err != nil {
			return nil, s.err
		}
		if r.opts.Supersample {
			img = imaging.Resize(img, img.Bounds().Dx()/2, img.Bounds().Dy()/2, imaging.Lanczos)
		}
		pages = append(pages, img)
	}

	w, h := pages[0].Bounds().Dx(), pages[0].Bounds().Dy()
	gap := int(PageGap * r.opts.Scale)
	out := imaging.New(w, len(pages)*h+(len(pages)-1)*gap, color.Transparent)
	for i, p := range pages {
		out = imaging.Paste(out, p, image.Pt(0, i*(h+gap)))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// face returns the glyph face for cs at the given device scale.
func (r *Renderer) face(cs style.Char, scale float64) (font.Face, error) {
	size := cs.Size
	if size <= 0 {
		size = style.DefaultChar.Size
	}
	name := fonts.Name(cs.Family, cs.Bold, cs.Italic)
	key := fmt.Sprintf("%s|%g", name, size*scale)

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	otf, ok := r.parsed[name]
	if !ok {
		data, err := fonts.Load(name)
		if err != nil {
			return nil, err
		}
		if otf, err = opentype.Parse(data); err != nil {
			return nil, fmt.Errorf("解析字体 %s 失败: %w", name, err)
		}
		r.parsed[name] = otf
	}
	f, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size * scale, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, fmt.Errorf("创建字体 %s 失败: %w", name, err)
	}
	r.faces[key] = f
	return f, nil
}

// surface draws into an NRGBA image; layout pixels are multiplied by scale.
type surface struct {
	renderer.StateStack
	r     *Renderer
	img   *image.NRGBA
	scale float64
	err   error
}

// device converts a page rectangle to image pixels.
func (s *surface) device(rc geom.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(rc.X*s.scale)), int(math.Floor(rc.Y*s.scale)),
		int(math.Ceil(rc.MaxX()*s.scale)), int(math.Ceil(rc.MaxY()*s.scale)),
	)
}

// target returns the image clipped to the current clip.
func (s *surface) target() draw.Image {
	if !s.Clipped {
		return s.img
	}
	return s.img.SubImage(s.device(s.State.Clip)).(draw.Image)
}

func (s *surface) DrawText(x, y float64, cs style.Char, text string) {
	if s.err != nil || text == "" {
		return
	}
	face, err := s.r.face(cs, s.scale)
	if err != nil {
		s.err = err
		return
	}
	m := face.Metrics()
	if !s.Visible(y-float64(m.Ascent)/64/s.scale, y+float64(m.Descent)/64/s.scale) {
		return
	}
	d := font.Drawer{
		Dst:  s.target(),
		Src:  image.NewUniform(nrgba(cs.Color)),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed((x + s.DX) * s.scale), Y: toFixed((y + s.DY) * s.scale)},
	}
	d.DrawString(text)
}

func (s *surface) Fill(rects []geom.Rect, c style.Color) {
	src := image.NewUniform(nrgba(c))
	for _, rc := range rects {
		rc = s.State.Rect(rc)
		if rc.Empty() {
			continue
		}
		draw.Draw(s.img, s.device(rc), src, image.Point{}, draw.Over)
	}
}

func nrgba(c style.Color) color.NRGBA { return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }
