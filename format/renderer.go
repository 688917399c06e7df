package format

import (
	"github.com/ByLCY/papyrus-text/layout"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// unboundedWidth is the layout width of unwrapped lines.
const unboundedWidth = 1 << 24

// paragraphRenderer formats the lines of paragraphs sharing one style. It
// remembers the empty-line metrics of each character style it has seen.
type paragraphRenderer struct {
	style   style.Paragraph
	width   float64
	wrap    bool
	faces   shaping.FaceProvider
	metrics map[style.Char]shaping.Metrics
}

func newParagraphRenderer(ps style.Paragraph, width float64, wrap bool, faces shaping.FaceProvider) *paragraphRenderer {
	if !wrap {
		ps.Flush = style.FlushLeading
	}
	return &paragraphRenderer{
		style:   ps,
		width:   width,
		wrap:    wrap,
		faces:   faces,
		metrics: map[style.Char]shaping.Metrics{},
	}
}

func (r *paragraphRenderer) defaultMetrics(cs style.Char) shaping.Metrics {
	if m, ok := r.metrics[cs]; ok {
		return m
	}
	m := shaping.DefaultMetrics(r.faces, cs)
	r.metrics[cs] = m
	return m
}

// formatLine lays out the line starting at m's position; a nil m gives the
// pseudo-line. end is the character style at the end of the paragraph.
func (r *paragraphRenderer) formatLine(m *shaping.Measurer, limit int, first bool, end style.Char) *layout.Line {
	width := r.width
	if !r.wrap {
		width = unboundedWidth
	}
	l := layout.FormatLine(layout.Params{
		Style:     r.style,
		Measurer:  m,
		Limit:     limit,
		Width:     width,
		FirstLine: first,
		Default:   r.defaultMetrics(end),
	})
	l.Width = r.width
	return l
}

// renderer returns the cached renderer for ps.
func (f *Formatter) renderer(ps style.Paragraph) *paragraphRenderer {
	if r, ok := f.renderers.Get(ps); ok {
		return r
	}
	r := newParagraphRenderer(ps, f.opts.Width, f.opts.Wrap, f.faces)
	f.renderers.Add(ps, r)
	return r
}
