package renderer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/format"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// 每行 11px，五行共 55px。
func newContent(fill format.Fill) *format.Formatter {
	cs := style.Char{Family: "go", Size: 10, Color: style.Black}
	d := document.NewWithStyles(cs, style.DefaultParagraph)
	d.Insert(0, document.NewPlain("aaaa\nbbbb\ncccc\ndddd\neeee", cs, style.DefaultParagraph))
	return format.New(d, shaping.NewFixedFaces(10), format.Options{Width: 80, Wrap: true, Fill: fill})
}

type textSurface struct{ texts []string }

func (s *textSurface) DrawText(x, y float64, cs style.Char, text string) {
	s.texts = append(s.texts, strings.TrimSpace(text))
}
func (s *textSurface) Fill([]geom.Rect, style.Color) {}
func (s *textSurface) Save()                         {}
func (s *textSurface) Restore()                      {}
func (s *textSurface) Translate(dx, dy float64)      {}
func (s *textSurface) Clip(geom.Rect)                {}

func TestPaginateBreaksBeforeLines(t *testing.T) {
	got := Paginate(newContent(format.TopToBottom), 25)
	if diff := cmp.Diff([]float64{0, 22, 44}, got); diff != "" {
		t.Fatalf("page starts (-want +got):\n%s", diff)
	}
	if got := Paginate(newContent(format.TopToBottom), 100); len(got) != 1 {
		t.Fatalf("expected single page, got %v", got)
	}
	// 行高超过页面时按页高切开
	if diff := cmp.Diff([]float64{0, 5, 10}, Paginate(newContent(format.TopToBottom), 5)[:3]); diff != "" {
		t.Fatalf("tall line starts (-want +got):\n%s", diff)
	}
}

func TestSheetsTopToBottom(t *testing.T) {
	c := newContent(format.TopToBottom)
	page := Page{Width: 100, Height: 45, Margin: 10}
	sheets := page.Sheets(c)
	want := []Sheet{
		{View: geom.Rect{X: 10, Y: 10, W: 80, H: 22}, Origin: geom.Point{X: 10, Y: 10}},
		{View: geom.Rect{X: 10, Y: 10, W: 80, H: 22}, Origin: geom.Point{X: 10, Y: -12}},
		{View: geom.Rect{X: 10, Y: 10, W: 80, H: 25}, Origin: geom.Point{X: 10, Y: -34}},
	}
	if diff := cmp.Diff(want, sheets); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}

	var pages [][]string
	for _, sh := range sheets {
		s := &textSurface{}
		c.Draw(s, sh.View, sh.Origin, nil)
		pages = append(pages, s.texts)
	}
	if diff := cmp.Diff([][]string{{"aaaa", "bbbb"}, {"cccc", "dddd"}, {"eeee"}}, pages); diff != "" {
		t.Fatalf("page texts (-want +got):\n%s", diff)
	}
}

func TestSheetsBottomToTop(t *testing.T) {
	c := newContent(format.BottomToTop)
	page := Page{Width: 100, Height: 45, Margin: 10, Fill: format.BottomToTop}
	sheets := page.Sheets(c)
	if len(sheets) != 3 {
		t.Fatalf("expected 3 sheets, got %d", len(sheets))
	}
	first := Sheet{View: geom.Rect{X: 10, Y: 13, W: 80, H: 22}, Origin: geom.Point{X: 10, Y: 35}}
	if diff := cmp.Diff(first, sheets[0]); diff != "" {
		t.Fatalf("first sheet (-want +got):\n%s", diff)
	}
	s := &textSurface{}
	c.Draw(s, sheets[1].View, sheets[1].Origin, nil)
	if diff := cmp.Diff([]string{"cccc", "dddd"}, s.texts); diff != "" {
		t.Fatalf("second page texts (-want +got):\n%s", diff)
	}
}
