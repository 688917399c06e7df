package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/style"
)

// BodyStyle is the character style used for text outside any span. A file
// may redefine it with `style body { ... }`.
const BodyStyle = "body"

// Build 将 markup 文件转换为带样式的文档。data 为 ${...} 插值的数据，可为 nil。
func Build(f *File, data any) (*document.Document, error) {
	if f == nil {
		return nil, fmt.Errorf("markup 文件为空")
	}
	b := &builder{
		data:   data,
		chars:  map[string]style.Char{BodyStyle: style.DefaultChar},
		rulers: map[string]style.TabRuler{},
		paras:  map[string]style.Paragraph{},
	}
	// 先收集声明，再组装段落，声明顺序不影响引用
	for _, pass := range []func(*Section) error{b.collectStyle, b.collectRuler, b.collectParagraph} {
		for _, s := range f.Sections {
			if err := pass(s); err != nil {
				return nil, err
			}
		}
	}
	var paras []*ParaSection
	for _, s := range f.Sections {
		if s.Para != nil {
			paras = append(paras, s.Para)
		}
	}
	b.doc = document.NewWithStyles(b.chars[BodyStyle], style.DefaultParagraph)
	for i, p := range paras {
		if err := b.appendPara(p, i == len(paras)-1); err != nil {
			return nil, err
		}
	}
	return b.doc, nil
}

type builder struct {
	data   any
	chars  map[string]style.Char
	rulers map[string]style.TabRuler
	paras  map[string]style.Paragraph
	doc    *document.Document
}

func (b *builder) collectStyle(s *Section) error {
	sec := s.Style
	if sec == nil {
		return nil
	}
	cs := b.chars[BodyStyle]
	for _, st := range sec.Block.Statements {
		a := st.Assignment
		if a == nil {
			return fmt.Errorf("%s: 样式 %s 只能包含属性", sec.Pos, sec.Name)
		}
		v, err := a.Value.Text()
		if err != nil {
			return fmt.Errorf("%s: %s: %w", a.Pos, a.Key, err)
		}
		switch a.Key {
		case "family":
			cs.Family = v
		case "size":
			l, err := style.ParseLength(v)
			if err != nil {
				return fmt.Errorf("%s: size: %w", a.Pos, err)
			}
			cs.Size = l.Px()
		case "bold", "italic", "underline":
			on, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %s 需要 true 或 false: %w", a.Pos, a.Key, err)
			}
			switch a.Key {
			case "bold":
				cs.Bold = on
			case "italic":
				cs.Italic = on
			default:
				cs.Underline = on
			}
		case "color":
			c, err := style.ParseColor(v)
			if err != nil {
				return fmt.Errorf("%s: %w", a.Pos, err)
			}
			cs.Color = c
		default:
			return fmt.Errorf("%s: 未知的样式属性 %s", a.Pos, a.Key)
		}
	}
	b.chars[sec.Name] = cs
	return nil
}

func (b *builder) collectRuler(s *Section) error {
	sec := s.Ruler
	if sec == nil {
		return nil
	}
	interval := style.DefaultTabRuler.Interval
	var stops []style.TabStop
	for _, st := range sec.Block.Statements {
		switch {
		case st.Assignment != nil && st.Assignment.Key == "interval":
			v, err := st.Assignment.Value.Text()
			if err != nil {
				return fmt.Errorf("%s: interval: %w", st.Assignment.Pos, err)
			}
			l, err := style.ParseLength(v)
			if err != nil {
				return fmt.Errorf("%s: interval: %w", st.Assignment.Pos, err)
			}
			interval = l.Px()
		case st.Command != nil && st.Command.Name == "stop":
			stop, err := parseStop(st.Command)
			if err != nil {
				return err
			}
			stops = append(stops, stop)
		default:
			return fmt.Errorf("%s: 制表位标尺 %s 只能包含 interval 和 stop", sec.Pos, sec.Name)
		}
	}
	r, err := style.NewTabRuler(interval, stops...)
	if err != nil {
		return fmt.Errorf("%s: ruler %s: %w", sec.Pos, sec.Name, err)
	}
	b.rulers[sec.Name] = r
	return nil
}

// parseStop parses `stop <position> [kind]`.
func parseStop(cmd *Command) (style.TabStop, error) {
	if len(cmd.Args) == 0 || len(cmd.Args) > 2 {
		return style.TabStop{}, fmt.Errorf("%s: stop 需要位置和可选的类型", cmd.Pos)
	}
	l, err := style.ParseLength(cmd.Args[0].Value)
	if err != nil {
		return style.TabStop{}, fmt.Errorf("%s: stop: %w", cmd.Pos, err)
	}
	stop := style.TabStop{Position: l.Px(), Kind: style.TabLeading}
	if len(cmd.Args) == 2 {
		if stop.Kind, err = style.ParseTabKind(cmd.Args[1].Value); err != nil {
			return style.TabStop{}, fmt.Errorf("%s: stop: %w", cmd.Pos, err)
		}
	}
	return stop, nil
}

func (b *builder) collectParagraph(s *Section) error {
	sec := s.Paragraph
	if sec == nil {
		return nil
	}
	ps := style.DefaultParagraph
	for _, st := range sec.Block.Statements {
		a := st.Assignment
		if a == nil {
			return fmt.Errorf("%s: 段落样式 %s 只能包含属性", sec.Pos, sec.Name)
		}
		v, err := a.Value.Text()
		if err != nil {
			return fmt.Errorf("%s: %s: %w", a.Pos, a.Key, err)
		}
		if err := b.setParagraphAttr(&ps, a.Key, v); err != nil {
			return fmt.Errorf("%s: %s: %w", a.Pos, a.Key, err)
		}
	}
	b.paras[sec.Name] = ps
	return nil
}

func (b *builder) setParagraphAttr(ps *style.Paragraph, key, v string) error {
	length := func(dst *float64) error {
		l, err := style.ParseLength(v)
		if err != nil {
			return err
		}
		*dst = l.Px()
		return nil
	}
	var err error
	switch key {
	case "leading-margin":
		return length(&ps.LeadingMargin)
	case "trailing-margin":
		return length(&ps.TrailingMargin)
	case "first-line-indent":
		return length(&ps.FirstLineIndent)
	case "min-line-spacing":
		return length(&ps.MinLineSpacing)
	case "extra-line-spacing":
		return length(&ps.ExtraLineSpacing)
	case "line-height":
		lh, err := style.ParseLineHeight(v)
		if err != nil {
			return err
		}
		ps.MinLineSpacing = lh.Resolve(b.chars[BodyStyle].Size)
	case "flush":
		ps.Flush, err = style.ParseFlush(v)
	case "direction":
		ps.Direction, err = style.ParseDirection(v)
	case "tabs":
		r, ok := b.rulers[v]
		if !ok {
			return fmt.Errorf("未定义的制表位标尺 %s", v)
		}
		ps.Tabs = r
	default:
		return fmt.Errorf("未知的段落属性")
	}
	return err
}

// appendPara appends one paragraph; all but the last end with a separator.
func (b *builder) appendPara(p *ParaSection, last bool) error {
	ps := style.DefaultParagraph
	if p.Style != "" {
		var ok bool
		if ps, ok = b.paras[p.Style]; !ok {
			return fmt.Errorf("%s: 未定义的段落样式 %s", p.Pos, p.Style)
		}
	}
	cs := b.chars[BodyStyle]
	add := func(text string, c style.Char) {
		if text == "" {
			return
		}
		text = strings.ReplaceAll(text, "\n", " ")
		b.doc.Append(document.NewPlain(text, c, ps))
		cs = c
	}
	for _, st := range p.Block.Statements {
		switch {
		case st.Text != nil:
			add(Interpolate(string(st.Text.Value), b.data), b.chars[BodyStyle])
		case st.Command != nil:
			text, c, err := b.command(st.Command)
			if err != nil {
				return err
			}
			add(text, c)
		default:
			return fmt.Errorf("%s: 段落中不允许属性 %s", p.Pos, st.Assignment.Key)
		}
	}
	if !last {
		b.doc.Append(document.NewPlain(string(document.ParagraphSeparator), cs, ps))
	}
	return nil
}

// command expands `span <style> "text"...` and `tab` inside a paragraph.
func (b *builder) command(cmd *Command) (string, style.Char, error) {
	body := b.chars[BodyStyle]
	switch cmd.Name {
	case "tab":
		return "\t", body, nil
	case "span":
		if len(cmd.Args) == 0 {
			return "", body, fmt.Errorf("%s: span 需要样式名", cmd.Pos)
		}
		cs, ok := b.chars[cmd.Args[0].Value]
		if !ok {
			return "", body, fmt.Errorf("%s: 未定义的样式 %s", cmd.Pos, cmd.Args[0].Value)
		}
		var sb strings.Builder
		for _, a := range cmd.Args[1:] {
			sb.WriteString(a.Value)
		}
		if cmd.Block != nil {
			for _, st := range cmd.Block.Statements {
				if st.Text == nil {
					return "", body, fmt.Errorf("%s: span 块中只能包含文本", cmd.Pos)
				}
				sb.WriteString(string(st.Text.Value))
			}
		}
		return Interpolate(sb.String(), b.data), cs, nil
	}
	return "", body, fmt.Errorf("%s: 未知的命令 %s", cmd.Pos, cmd.Name)
}
