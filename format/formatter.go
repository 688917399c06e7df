// Package format is the incremental layout engine. A Formatter keeps a
// gap-indexed table of formatted lines for a document and re-derives only
// the lines an edit touches.
package format

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ByLCY/papyrus-text/document"
	"github.com/ByLCY/papyrus-text/gaptable"
	"github.com/ByLCY/papyrus-text/geom"
	"github.com/ByLCY/papyrus-text/layout"
	"github.com/ByLCY/papyrus-text/shaping"
	"github.com/ByLCY/papyrus-text/style"
)

// Line table key columns.
const (
	colChar = iota
	colPixel
)

// measurerReuseDisabled is set for the whole process once patching a
// cached measurer has failed.
var measurerReuseDisabled atomic.Bool

// entry is one row of the line table.
type entry struct {
	line *layout.Line
	// style is the paragraph style the line was formatted with.
	style style.Paragraph
	// first marks the first line of a paragraph.
	first bool
}

// cachedMeasurer is the measurer of the last paragraph formatted, valid
// for the document at timestamp stamp.
type cachedMeasurer struct {
	m            *shaping.Measurer
	start, limit int
	stamp        int
}

// Formatter 增量排版引擎。每个公开方法各自持锁；文档变更后必须先调用
// UpdateFormat，再发起其他查询。
type Formatter struct {
	mu    sync.Mutex
	src   document.Source
	faces shaping.FaceProvider
	opts  Options
	log   *zap.Logger

	// lines holds formatted lines keyed by character start and pixel top.
	// Lines always cover a prefix of the document without holes.
	lines    *gaptable.Table[entry]
	tot      [2]int // document length and formatted height
	stamp    int
	complete bool

	renderers *lru.Cache[style.Paragraph, *paragraphRenderer]
	meas      *cachedMeasurer
	reused    int
}

// New returns a formatter over src. Nothing is formatted until needed.
func New(src document.Source, faces shaping.FaceProvider, opts Options) *Formatter {
	opts = opts.withDefaults()
	f := &Formatter{
		src:   src,
		faces: faces,
		opts:  opts,
		log:   opts.Logger,
	}
	f.reset()
	return f
}

func (f *Formatter) reset() {
	f.lines = gaptable.New[entry](2, 16)
	f.tot = [2]int{f.src.Len(), 0}
	f.stamp = f.src.Timestamp()
	f.complete = false
	renderers, err := lru.New[style.Paragraph, *paragraphRenderer](f.opts.RendererCacheSize)
	if err != nil {
		panic(fmt.Sprintf("format: reset: renderer cache: %v", err))
	}
	f.renderers = renderers
}

func (f *Formatter) totals() []int { return f.tot[:] }

func (f *Formatter) length() int { return f.tot[colChar] }
func (f *Formatter) height() int { return f.tot[colPixel] }

func (f *Formatter) line(i int) *layout.Line { return f.lines.At(i).line }
func (f *Formatter) lineStart(i int) int     { return f.lines.Key(colChar, i, f.totals()) }
func (f *Formatter) lineTop(i int) int       { return f.lines.Key(colPixel, i, f.totals()) }

// frontier returns the end of the formatted text.
func (f *Formatter) frontier() int {
	n := f.lines.Len()
	if n == 0 {
		return 0
	}
	return f.lineStart(n-1) + f.line(n-1).CharLength
}

func (f *Formatter) hasNegative() bool { return f.lines.Split() < f.lines.Len() }

// checkTimeStamp panics if the document changed since the last update.
func (f *Formatter) checkTimeStamp(op string) {
	if ts, n := f.src.Timestamp(), f.src.Len(); ts != f.stamp || n != f.length() {
		panic(fmt.Sprintf("format: %s: document changed without UpdateFormat (timestamp %d, formatted %d; length %d, formatted %d)",
			op, ts, f.stamp, n, f.length()))
	}
}

func (f *Formatter) checkOffset(op string, pos int) {
	if pos < 0 || pos > f.src.Len() {
		panic(fmt.Sprintf("format: %s: offset %d out of range [0,%d]", op, pos, f.src.Len()))
	}
}

// measurerFor returns a measurer over the paragraph [start,limit) of the
// current document, reusing the cached one when it is up to date.
func (f *Formatter) measurerFor(start, limit int) *shaping.Measurer {
	ts := f.src.Timestamp()
	if c := f.meas; c != nil && c.start == start && c.limit == limit && c.stamp == ts {
		return c.m
	}
	m := shaping.NewMeasurer(f.src, start, limit, f.faces)
	f.meas = &cachedMeasurer{m: m, start: start, limit: limit, stamp: ts}
	return m
}

// formatLineAt formats the line starting at pos.
func (f *Formatter) formatLineAt(pos int) entry {
	ps := f.src.ParagraphStyleAt(pos)
	start, limit := f.src.ParagraphStart(pos), f.src.ParagraphLimit(pos)
	r := f.renderer(ps)
	end := f.src.CharStyleAt(max(limit-1, 0))
	if pos >= limit {
		return entry{line: r.formatLine(nil, limit, true, end), style: ps, first: true}
	}
	m := f.measurerFor(start, limit)
	m.SetPosition(pos)
	first := pos == start
	return entry{line: r.formatLine(m, limit, first, end), style: ps, first: first}
}

// needsPseudoLine reports whether the document ends in an empty paragraph.
func (f *Formatter) needsPseudoLine() bool {
	n := f.src.Len()
	return n == 0 || f.src.CharAt(n-1) == document.ParagraphSeparator
}

// reusable reports whether negative line i, which starts at pos, can be
// kept after an edit ending at editEnd.
func (f *Formatter) reusable(i, pos, editEnd int) bool {
	if pos < editEnd || (pos == editEnd && pos == f.src.Len()) {
		return false
	}
	e := f.lines.At(i)
	if e.style != f.src.ParagraphStyleAt(pos) {
		return false
	}
	start := f.src.ParagraphStart(pos)
	if start == pos || e.first {
		// 段首行只能作为段首行复用
		return start == pos && e.first
	}
	// 段落中间：编辑之后的行须与当前段落分析一致，直到段尾
	if pos == editEnd {
		return false
	}
	limit := f.src.ParagraphLimit(pos)
	m := f.measurerFor(start, limit)
	for j := i; j < f.lines.Len(); j++ {
		s, l := f.lineStart(j), f.line(j)
		if s >= limit {
			return true
		}
		if l.LeftToRight != m.LeftToRight() || s+l.CharLength > limit {
			return false
		}
		for _, seg := range l.Segments {
			if !m.Matches(s+seg.Start, seg.Run) {
				return false
			}
		}
	}
	return true
}

func (f *Formatter) dropNegative() {
	f.tot[colPixel] -= f.lines.At(f.lines.Split()).line.Height()
	f.lines.DropNegative(1)
}

// formatText appends lines to the positive region starting at pos. Stale
// negative lines are dropped on the way. It returns true when it reached
// a negative line that could be kept, and false when the document ended
// or stop, which is only consulted once no negative lines remain, said so.
func (f *Formatter) formatText(pos, editEnd int, stop func(pos, y int) bool) (resynced bool, produced int) {
	y := f.positiveBottom()
	push := func(e entry) {
		f.lines.Push([]int{pos, y}, e)
		f.tot[colPixel] += e.line.Height()
		produced++
	}
	for {
		for f.hasNegative() {
			i := f.lines.Split()
			s := f.lineStart(i)
			if s == pos && f.reusable(i, pos, editEnd) {
				return true, produced
			}
			if s > pos && s >= editEnd {
				break
			}
			f.dropNegative()
		}
		if pos >= f.src.Len() {
			for f.hasNegative() {
				f.dropNegative()
			}
			if f.needsPseudoLine() {
				push(f.formatLineAt(pos))
			}
			f.complete = true
			return false, produced
		}
		if !f.hasNegative() && stop(pos, y) {
			return false, produced
		}
		e := f.formatLineAt(pos)
		if e.line.CharLength == 0 {
			panic(fmt.Sprintf("format: formatText: empty line at %d", pos))
		}
		push(e)
		pos += e.line.CharLength
		y += e.line.Height()
	}
}

// positiveBottom returns the bottom of the last positive line.
func (f *Formatter) positiveBottom() int {
	k := f.lines.Split()
	if k == 0 {
		return 0
	}
	return f.lineTop(k-1) + f.line(k-1).Height()
}

// extend formats past the end of the table until stop is satisfied.
func (f *Formatter) extend(stop func(pos, y int) bool) {
	f.lines.ShiftToIndex(f.lines.Len(), f.totals())
	f.formatText(f.frontier(), 0, stop)
}

// formatToHeight formats until the lines reach height h.
func (f *Formatter) formatToHeight(h int) {
	if f.complete || f.height() >= h {
		return
	}
	f.extend(func(_, y int) bool { return y >= h })
}

// formatToOffset formats until the line containing pos exists.
func (f *Formatter) formatToOffset(pos int) {
	if f.complete || f.frontier() > pos {
		return
	}
	f.extend(func(p, _ int) bool { return p > pos })
}

func (f *Formatter) formatAll() {
	f.formatToHeight(math.MaxInt)
}

// FormatToHeight formats lines until their total height reaches h pixels
// or the document ends. A host may call it from a background goroutine.
func (f *Formatter) FormatToHeight(h int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTimeStamp("FormatToHeight")
	f.formatToHeight(h)
}

// UpdateFormat brings the line table in line with the document after an
// edit that left editLength new characters at editStart. view and origin
// are in caller coordinates; the returned rectangle is the part of view
// whose contents changed.
func (f *Formatter) UpdateFormat(editStart, editLength int, view geom.Rect, origin geom.Point) geom.Rect {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.src.Len()
	delta := n - f.length()
	oldEnd := editStart + editLength - delta
	if editStart < 0 || editLength < 0 || editStart+editLength > n || oldEnd < editStart || oldEnd > f.length() {
		panic(fmt.Sprintf("format: UpdateFormat: bad edit [%d,+%d) for length %d -> %d", editStart, editLength, f.length(), n))
	}
	reused := f.patchMeasurer(editStart, editLength, delta)

	oldHeight := f.height()
	frontier := f.frontier()
	target := editStart
	switch {
	case f.complete:
		target = math.MaxInt
	case frontier <= editStart:
		target = frontier
	case frontier >= oldEnd:
		target = frontier + delta
	}

	k := f.firstAffectedLine(editStart)
	pos, top := 0, 0
	if k < f.lines.Len() {
		pos, top = f.lineStart(k), f.lineTop(k)
	}
	f.lines.ShiftToIndex(min(k, f.lines.Len()), f.totals())
	f.tot[colChar] = n
	f.stamp = f.src.Timestamp()

	editEnd := editStart + editLength
	resynced, produced := f.formatText(pos, editEnd, func(p, _ int) bool { return p >= target })
	bottom := f.positiveBottom()
	if !resynced || f.height() != oldHeight {
		bottom = max(oldHeight, f.height())
	}
	damage := f.band(top, bottom)

	if !view.Empty() {
		if need := f.layoutExtent(view, origin); f.height() < need {
			before := f.height()
			f.formatToHeight(need)
			damage = damage.Union(f.band(before, f.height()))
		}
	}
	f.log.Debug("reformat",
		zap.Int("editStart", editStart),
		zap.Int("editLength", editLength),
		zap.Int("lines", produced),
		zap.Bool("resynced", resynced),
		zap.Bool("measurerReused", reused),
	)
	r := f.toCaller(damage, origin)
	if !view.Empty() {
		r = r.Intersect(view)
	}
	return r
}

// firstAffectedLine returns the index of the first line an edit at
// editStart may change.
func (f *Formatter) firstAffectedLine(editStart int) int {
	if f.lines.Len() == 0 {
		return 0
	}
	k := max(f.lines.Find(colChar, editStart, f.totals()), 0)
	s := f.lineStart(k)
	ps := f.src.ParagraphStart(min(s, f.src.Len()))
	if ps == s {
		return k
	}
	// 段落样式或方向改变时整段重排
	if f.lines.At(k).style != f.src.ParagraphStyleAt(s) ||
		f.measurerFor(ps, f.src.ParagraphLimit(ps)).LeftToRight() != f.line(k).LeftToRight {
		return max(f.lines.Find(colChar, ps, f.totals()), 0)
	}
	// 编辑落在行首第一个单词内时，上一行可能可以容纳它
	limit := f.src.ParagraphLimit(s)
	for k > 0 && s != ps && editStart <= shaping.FirstBreak(f.src, s, limit) {
		k--
		s = f.lineStart(k)
	}
	return k
}

// patchMeasurer updates the cached measurer in place after a one
// character edit, or drops it.
func (f *Formatter) patchMeasurer(editStart, editLength, delta int) bool {
	c := f.meas
	f.meas = nil
	if c == nil || f.opts.DisableMeasurerReuse || measurerReuseDisabled.Load() {
		return false
	}
	insert := delta == 1 && editLength == 1
	if !insert && !(delta == -1 && editLength == 0) {
		return false
	}
	if f.src.Timestamp() != c.stamp+1 {
		return false
	}
	start, limit := f.src.ParagraphStart(editStart), f.src.ParagraphLimit(editStart)
	if start != c.start || limit-start != c.limit-c.start+delta {
		return false
	}
	err := safely(func() error {
		if insert {
			return c.m.InsertChar(f.src, start, limit, editStart)
		}
		return c.m.DeleteChar(f.src, start, limit, editStart)
	})
	if err != nil {
		if errors.Is(err, shaping.ErrOutOfSync) {
			f.log.Debug("measurer out of sync", zap.Int("editStart", editStart))
			return false
		}
		measurerReuseDisabled.Store(true)
		f.log.Warn("measurer reuse disabled", zap.Error(err))
		return false
	}
	c.limit = limit
	c.stamp = f.src.Timestamp()
	f.meas = c
	f.reused++
	return true
}

// safely runs fn, turning a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("测量器增量更新失败: %v", r)
		}
	}()
	return fn()
}

// SetWidth changes the fill width and drops all lines.
func (f *Formatter) SetWidth(w float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w == f.opts.Width {
		return
	}
	f.opts.Width = w
	f.reset()
}

// SetWrap turns line wrapping on or off and drops all lines.
func (f *Formatter) SetWrap(wrap bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if wrap == f.opts.Wrap {
		return
	}
	f.opts.Wrap = wrap
	f.reset()
}

// Invalidate drops all lines; the next query formats from scratch against
// the current document.
func (f *Formatter) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}
