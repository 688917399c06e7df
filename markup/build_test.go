package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/papyrus-text/style"
)

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := ParseString(src)
	require.NoError(t, err)
	return f
}

func TestBuildStylesAndParagraphs(t *testing.T) {
	f := mustParse(t, `
doc Letter v1 {
  para fancy {
    "Dear "
    span strong "${user.name|friend}"
    ","
  }
  para {
    "a"; tab; "b"
  }

  style body {
    family: goregular
    size: 10pt
  }
  style strong {
    bold: true
    color: #c00
  }
  ruler cols {
    interval: 20
    stop 50 trailing
    stop 1in
  }
  paragraph fancy {
    leading-margin: 4
    first-line-indent: 8px
    line-height: 1.5x
    flush: center
    direction: rtl
    tabs: cols
  }
}
`)
	doc, err := Build(f, map[string]any{"user": map[string]any{"name": "Ada"}})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("Dear Ada,\na\tb", doc.String())
	assert.Equal(2, doc.ParagraphCount())

	body := style.Char{Family: "goregular", Size: 10, Color: style.Black}
	assert.Equal(body, doc.CharStyleAt(0))
	strong := body
	strong.Bold = true
	strong.Color = style.Color{R: 0xcc, A: 0xff}
	assert.Equal(strong, doc.CharStyleAt(5))
	assert.Equal(body, doc.CharStyleAt(8))

	fancy := doc.ParagraphStyleAt(0)
	assert.Equal(4.0, fancy.LeadingMargin)
	assert.Equal(8.0, fancy.FirstLineIndent)
	assert.Equal(15.0, fancy.MinLineSpacing)
	assert.Equal(style.FlushCenter, fancy.Flush)
	assert.Equal(style.DirectionRightToLeft, fancy.Direction)
	assert.Equal([]style.TabStop{
		{Position: 50, Kind: style.TabTrailing},
		{Position: 72, Kind: style.TabLeading},
	}, fancy.Tabs.Stops())
	assert.Equal(20.0, fancy.Tabs.Interval)

	assert.Equal(style.DefaultParagraph, doc.ParagraphStyleAt(doc.Len()-1))
}

func TestBuildEmptyParagraphs(t *testing.T) {
	f := mustParse(t, "doc X v1 {\n  para {}\n  para {}\n  para { \"x\" }\n}\n")
	doc, err := Build(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "\n\nx", doc.String())
	assert.Equal(t, 3, doc.ParagraphCount())
}

func TestBuildJoinsLiteralLines(t *testing.T) {
	f := mustParse(t, "doc X v1 {\n  para { \"one\\ntwo\" }\n}\n")
	doc, err := Build(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "one two", doc.String())
}

func TestBuildSpanBlock(t *testing.T) {
	f := mustParse(t, "doc X v1 {\n  style em { italic: true }\n  para {\n    span em {\n      \"ab\"\n      \"cd\"\n    }\n  }\n}\n")
	doc, err := Build(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", doc.String())
	assert.True(t, doc.CharStyleAt(3).Italic)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown char style", "doc X v1 {\n  para { span nope \"x\" }\n}\n"},
		{"unknown paragraph style", "doc X v1 {\n  para nope { \"x\" }\n}\n"},
		{"unknown ruler", "doc X v1 {\n  paragraph p { tabs: nope }\n}\n"},
		{"unknown style attribute", "doc X v1 {\n  style s { weight: 700 }\n}\n"},
		{"unknown paragraph attribute", "doc X v1 {\n  paragraph p { gutter: 4 }\n}\n"},
		{"bad bool", "doc X v1 {\n  style s { bold: maybe }\n}\n"},
		{"bad color", "doc X v1 {\n  style s { color: \"red\" }\n}\n"},
		{"bad flush", "doc X v1 {\n  paragraph p { flush: sideways }\n}\n"},
		{"unordered stops", "doc X v1 {\n  ruler r {\n    stop 20\n    stop 10\n  }\n}\n"},
		{"bad stop kind", "doc X v1 {\n  ruler r { stop 20 diagonal }\n}\n"},
		{"assignment in para", "doc X v1 {\n  para { size: 3 }\n}\n"},
		{"unknown command", "doc X v1 {\n  para { image \"a.png\" }\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.src)
			_, err := Build(f, nil)
			assert.Error(t, err)
		})
	}

	_, err := Build(nil, nil)
	assert.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"user":  map[string]any{"name": "Ada", "tags": []any{"x", []any{"y", "z"}}},
		"count": 3.0,
	}
	tests := []struct {
		in, want string
		data     any
	}{
		{"Hi ${user.name}!", "Hi Ada!", data},
		{"${ user.name }", "Ada", data},
		{"${count} items", "3 items", data},
		{"${user.tags[0]}${user.tags[1][1]}", "xz", data},
		{"${user.tags[9]}", "${user.tags[9]}", data},
		{"${user.age|unknown}", "unknown", data},
		{"${user.age|}", "", data},
		{"${missing}", "${missing}", data},
		{"${user.name}", "${user.name}", nil},
		{"${user.name|anon}", "anon", nil},
		{"no placeholders", "no placeholders", data},
		{"${unterminated", "${unterminated", data},
		{"${}", "${}", data},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpolate(tt.in, tt.data), tt.in)
	}
}
