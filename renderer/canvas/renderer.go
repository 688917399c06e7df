package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/papyrus-text/fonts"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/renderer"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// Renderer draws formatted text into PDF pages via github.com/tdewolff/canvas.
// It is also a shaping.FaceProvider, so text measured with it lines up with
// what it draws.
type Renderer struct {
	baseDir string

	// injected resources
	fontBlobs map[string][]byte // by unique name
	fontSrcs  map[string]string // family[/variant] -> src

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily // by src
	faces    map[faceKey]*canvas.FontFace
	measures map[string]*canvasFace
}

var (
	_ renderer.Renderer    = (*Renderer)(nil)
	_ shaping.FaceProvider = (*Renderer)(nil)
	_ shaping.Surface      = (*surface)(nil)
)

type faceKey struct {
	font  string
	color style.Color
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	// Fonts maps a family name, optionally with a "/bold", "/italic" or
	// "/bolditalic" suffix, to a font source: "built-in:<name>" for
	// FontBlobs, "embed:<name>" for the bundled fonts, or a path relative
	// to BaseDir. Families without an entry use the bundled Go fonts.
	Fonts     map[string]string
	FontBlobs map[string]Resource
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:   opts.BaseDir,
		fontBlobs: map[string][]byte{},
		fontSrcs:  map[string]string{},
		families:  map[string]*canvas.FontFamily{},
		faces:     map[faceKey]*canvas.FontFace{},
		measures:  map[string]*canvasFace{},
	}
	for name, src := range opts.Fonts {
		r.fontSrcs[strings.ToLower(name)] = src
	}
	for name, res := range opts.FontBlobs {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时在使用处报错
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render draws c onto as many pages as it needs and returns the PDF bytes.
func (r *Renderer) Render(c renderer.Content, page renderer.Page) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("渲染内容为空")
	}
	if page.Width <= 0 || page.Height <= 0 || page.Body().Empty() {
		return nil, fmt.Errorf("页面尺寸无效: %gx%g 边距 %g", page.Width, page.Height, page.Margin)
	}

	w, h := toMm(page.Width), toMm(page.Height)
	var buf bytes.Buffer
	writer := pdf.New(&buf, w, h, nil)
	applyMeta(writer, page.Meta)
	for i, sheet := range page.Sheets(c) {
		if i > 0 {
			writer.NewPage(w, h)
		}
		cv := canvas.New(w, h)
		ctx := canvas.NewContext(cv)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

		s := &surface{r: r, ctx: ctx}
		if page.Background.A > 0 {
			s.Fill([]geom.Rect{{W: page.Width, H: page.Height}}, page.Background)
		}
		c.Draw(s, sheet.View, sheet.Origin, page.Selection)
		if s.err != nil {
			return nil, s.err
		}
		cv.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta renderer.Meta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// Face implements shaping.FaceProvider with canvas font metrics.
func (r *Renderer) Face(cs style.Char) shaping.Face {
	key := cs.Key()
	r.fontMu.Lock()
	if f, ok := r.measures[key]; ok {
		r.fontMu.Unlock()
		return f
	}
	r.fontMu.Unlock()

	face, err := r.fontFace(cs, style.Black)
	if err != nil {
		// 内置字体总能加载；走到这里说明构建有问题
		panic(fmt.Sprintf("canvasrenderer: Face: %v", err))
	}
	f := &canvasFace{face: face}
	r.fontMu.Lock()
	r.measures[key] = f
	r.fontMu.Unlock()
	return f
}

// surface adapts a canvas context to shaping.Surface. Pixel coordinates
// are converted to the millimetres canvas works in.
type surface struct {
	renderer.StateStack
	r   *Renderer
	ctx *canvas.Context
	err error
}

func (s *surface) DrawText(x, y float64, cs style.Char, text string) {
	if s.err != nil || text == "" {
		return
	}
	face, err := s.r.fontFace(cs, cs.Color)
	if err != nil {
		s.err = err
		return
	}
	m := face.Metrics()
	if !s.Visible(y-toPt(m.Ascent), y+toPt(math.Abs(m.Descent))) {
		return
	}
	line := canvas.NewTextLine(face, text, canvas.Left)
	s.ctx.DrawText(toMm(x+s.DX), toMm(y+s.DY), line)
}

func (s *surface) Fill(rects []geom.Rect, c style.Color) {
	s.ctx.SetFillColor(colorFromStyle(c))
	s.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	for _, rc := range rects {
		rc = s.State.Rect(rc)
		if rc.Empty() {
			continue
		}
		s.ctx.DrawPath(toMm(rc.X), toMm(rc.Y), canvas.Rectangle(toMm(rc.W), toMm(rc.H)))
	}
}

// canvasFace measures with a canvas font face; results are in pixels.
type canvasFace struct {
	mu   sync.Mutex
	face *canvas.FontFace
}

func (f *canvasFace) width(s string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return toPt(f.face.TextWidth(s))
}

func (f *canvasFace) Advance(r rune) float64 {
	if shaping.ZeroAdvance(r) {
		return 0
	}
	return f.width(string(r))
}

func (f *canvasFace) Kern(prev, r rune) float64 {
	if shaping.ZeroAdvance(prev) || shaping.ZeroAdvance(r) {
		return 0
	}
	return f.width(string([]rune{prev, r})) - f.width(string(prev)) - f.width(string(r))
}

func (f *canvasFace) Metrics() shaping.Metrics {
	f.mu.Lock()
	m := f.face.Metrics()
	f.mu.Unlock()
	a, d := toPt(m.Ascent), toPt(math.Abs(m.Descent))
	return shaping.Metrics{Ascent: a, Descent: d, Leading: math.Max(toPt(m.LineHeight)-a-d, 0)}
}

func (r *Renderer) fontFace(cs style.Char, col style.Color) (*canvas.FontFace, error) {
	src := r.fontSource(cs)
	key := faceKey{font: src + "|" + fmt.Sprint(cs.Size), color: col}
	family, err := r.ensureFontFamily(src, cs)
	if err != nil {
		return nil, err
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	size := cs.Size
	if size <= 0 {
		size = style.DefaultChar.Size
	}
	f := family.Face(size, colorFromStyle(col), canvas.FontRegular, canvas.FontNormal)
	r.faces[key] = f
	return f, nil
}

// fontSource picks the source for cs: an exact family/variant entry, then
// the family entry, then the bundled font of that style.
func (r *Renderer) fontSource(cs style.Char) string {
	builtin := fonts.Name(cs.Family, cs.Bold, cs.Italic)
	_, variant, _ := strings.Cut(builtin, "/")
	family := strings.ToLower(strings.TrimSpace(cs.Family))
	if src, ok := r.fontSrcs[family+"/"+variant]; ok {
		return src
	}
	if src, ok := r.fontSrcs[family]; ok {
		return src
	}
	return "embed:" + builtin
}

func (r *Renderer) ensureFontFamily(src string, cs style.Char) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.families[src]; ok {
		return family, nil
	}
	family := canvas.NewFontFamily(src)
	data, err := r.loadFontBytes(src)
	if err == nil {
		err = family.LoadFont(data, 0, canvas.FontRegular)
	}
	if err != nil {
		fallback := "embed:" + fonts.Name("go", cs.Bold, cs.Italic)
		if src == fallback {
			return nil, err
		}
		family = canvas.NewFontFamily(fallback)
		data, fbErr := fonts.Load(fallback)
		if fbErr == nil {
			fbErr = family.LoadFont(data, 0, canvas.FontRegular)
		}
		if fbErr != nil {
			return nil, err
		}
	}
	r.families[src] = family
	return family, nil
}

func (r *Renderer) loadFontBytes(src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("字体缺少 src")
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(strings.TrimPrefix(src, "embed:"))
	}
	// Path based
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func colorFromStyle(c style.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * style.MmToPt }

// toMm 将点(pt)转换为毫米(mm)。
func toMm(pt float64) float64 { return pt * style.PtToMm }
