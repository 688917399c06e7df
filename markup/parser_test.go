package markup_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/papyrus-text/markup"
)

const sampleMarkup = `
doc Letter v1 {
  style heading {
    size: 18pt
    bold: true
    color: #0F62FE
  }

  ruler columns {
    interval: 24pt
    stop 120 trailing
    stop 200
  }

  paragraph body-indented {
    leading-margin: 10mm
    flush: justified
    tabs: columns
  }

  para body-indented {
    "Hello, ${user.name}!"
    span heading "Title"; tab
  }

  para {}
}
`

func TestParseFile(t *testing.T) {
	f, err := markup.ParseString(sampleMarkup)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if f.Name != "Letter" || f.Version != "v1" {
		t.Fatalf("unexpected header %s %s", f.Name, f.Version)
	}
	if len(f.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(f.Sections))
	}
	kinds := make([]string, len(f.Sections))
	for i, s := range f.Sections {
		kinds[i] = s.Kind()
	}
	if got := strings.Join(kinds, ","); got != "style,ruler,paragraph,para,para" {
		t.Fatalf("unexpected section kinds %s", got)
	}

	heading := f.Sections[0].Style
	if heading.Name != "heading" || len(heading.Block.Statements) != 3 {
		t.Fatalf("unexpected style section %+v", heading)
	}
	size := heading.Block.Statements[0].Assignment
	if size == nil || size.Value.Number == nil || *size.Value.Number != "18pt" {
		t.Fatalf("expected size number assignment, got %+v", heading.Block.Statements[0])
	}
	color := heading.Block.Statements[2].Assignment
	if color == nil || color.Value.Color == nil || *color.Value.Color != "#0F62FE" {
		t.Fatalf("expected color assignment, got %+v", heading.Block.Statements[2])
	}

	ruler := f.Sections[1].Ruler
	stop := ruler.Block.Statements[1].Command
	if stop == nil || stop.Name != "stop" || len(stop.Args) != 2 {
		t.Fatalf("expected stop command, got %+v", ruler.Block.Statements[1])
	}
	if stop.Args[0].Value != "120" || stop.Args[1].Value != "trailing" {
		t.Fatalf("unexpected stop args: %+v", stop.Args)
	}

	para := f.Sections[2].Paragraph
	if para.Name != "body-indented" {
		t.Fatalf("expected paragraph body-indented, got %s", para.Name)
	}
	flush := para.Block.Statements[1].Assignment
	if v, err := flush.Value.Text(); err != nil || v != "justified" {
		t.Fatalf("expected flush justified, got %q (%v)", v, err)
	}

	text := f.Sections[3].Para
	if text.Style != "body-indented" {
		t.Fatalf("expected para style body-indented, got %q", text.Style)
	}
	if len(text.Block.Statements) != 3 {
		t.Fatalf("expected 3 para statements, got %d", len(text.Block.Statements))
	}
	if lit := text.Block.Statements[0].Text; lit == nil || !strings.Contains(string(lit.Value), "${user.name}") {
		t.Fatalf("expected text literal with interpolation, got %+v", text.Block.Statements[0])
	}
	span := text.Block.Statements[1].Command
	if span == nil || span.Name != "span" || len(span.Args) != 2 || span.Args[1].Value != "Title" {
		t.Fatalf("unexpected span command %+v", text.Block.Statements[1])
	}
	if tab := text.Block.Statements[2].Command; tab == nil || tab.Name != "tab" {
		t.Fatalf("expected tab command, got %+v", text.Block.Statements[2])
	}

	if empty := f.Sections[4].Para; empty.Style != "" || len(empty.Block.Statements) != 0 {
		t.Fatalf("expected empty default para, got %+v", empty)
	}
}

func TestParseReportsPosition(t *testing.T) {
	_, err := markup.ParseString("doc Broken v1 {\n  style {\n}\n")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "2:") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestValueTextRejectsArray(t *testing.T) {
	f, err := markup.ParseString("doc X v1 {\n  style s {\n    family: [\"a\", \"b\"]\n  }\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	v := f.Sections[0].Style.Block.Statements[0].Assignment.Value
	if v.Array == nil || len(v.Array.Values) != 2 {
		t.Fatalf("expected array value, got %+v", v)
	}
	if _, err := v.Text(); err == nil {
		t.Fatalf("expected error for array value")
	}
}
