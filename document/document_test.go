package document

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/ByLCY/papyrus-text/style"
)

func paragraphStarts(d *Document) []int {
	var out []int
	for i := 0; i < d.paras.Count(); i++ {
		out = append(out, d.paras.RunStart(i, d.Len()))
	}
	return out
}

func expectedStarts(text string) []int {
	rs := []rune(text)
	out := []int{0}
	for i, r := range rs {
		if r == '\n' && i+1 < len(rs) {
			out = append(out, i+1)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertAndText(t *testing.T) {
	d := New()
	d.InsertString(0, "hello world")
	d.InsertString(5, ",")
	if got := d.String(); got != "hello, world" {
		t.Fatalf("String() = %q", got)
	}
	if got := d.Text(7, 12); got != "world" {
		t.Fatalf("Text(7,12) = %q", got)
	}
	d.Remove(0, 7)
	if got := d.String(); got != "world" {
		t.Fatalf("after Remove = %q", got)
	}
	if d.CharAt(0) != 'w' {
		t.Fatalf("CharAt(0) = %q", d.CharAt(0))
	}
}

func TestParagraphBoundariesFollowSeparators(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	d := New()
	model := ""
	alphabet := []rune("ab \n")
	for iter := 0; iter < 1500; iter++ {
		n := len([]rune(model))
		start := rng.Intn(n + 1)
		limit := start + rng.Intn(min(n-start, 4)+1)
		var sb strings.Builder
		for k := rng.Intn(5); k > 0; k-- {
			sb.WriteRune(alphabet[rng.Intn(len(alphabet))])
		}
		ins := sb.String()

		if rng.Intn(8) == 0 && n > 0 {
			// 以自身为源的替换；拷贝长度有上限，否则文档会按倍数增长
			s := rng.Intn(n)
			e := s + rng.Intn(min(n-s, 8)+1)
			ins = string([]rune(model)[s:e])
			d.Replace(start, limit, d, s, e)
		} else {
			p := NewPlain(ins, style.DefaultChar, style.DefaultParagraph)
			d.Replace(start, limit, p, 0, p.Len())
		}
		rs := []rune(model)
		model = string(rs[:start]) + ins + string(rs[limit:])

		if got := d.String(); got != model {
			t.Fatalf("iter %d: text = %q, want %q", iter, got, model)
		}
		if got, want := paragraphStarts(d), expectedStarts(model); !equalInts(got, want) {
			t.Fatalf("iter %d: paragraph starts = %v, want %v (text %q)", iter, got, want, model)
		}
	}
}

// 段落数达到 2^17 时，段落表的二分索引按约定直接 panic。
func TestTooManyParagraphsPanics(t *testing.T) {
	var msg string
	func() {
		defer func() { msg, _ = recover().(string) }()
		d := New()
		d.InsertString(0, strings.Repeat("\n", 1<<17+2))
		d.ParagraphStart(2)
	}()
	if !strings.Contains(msg, "search index") {
		t.Fatalf("panic = %q, want a search index length fault", msg)
	}
}

func TestParagraphStartAndLimit(t *testing.T) {
	d := New()
	d.InsertString(0, "ab\ncd\n")
	tests := []struct {
		pos, start, limit int
	}{{0, 0, 3}, {2, 0, 3}, {3, 3, 6}, {5, 3, 6}, {6, 6, 6}}
	for _, tt := range tests {
		if got := d.ParagraphStart(tt.pos); got != tt.start {
			t.Fatalf("ParagraphStart(%d) = %d, want %d", tt.pos, got, tt.start)
		}
		if got := d.ParagraphLimit(tt.pos); got != tt.limit {
			t.Fatalf("ParagraphLimit(%d) = %d, want %d", tt.pos, got, tt.limit)
		}
	}
}

func TestDamagedRange(t *testing.T) {
	d := New()
	d.InsertString(0, "0123456789")
	d.ResetDamagedRange()
	if s, l := d.DamagedRange(); s != math.MaxInt || l != math.MinInt {
		t.Fatalf("reset range = (%d,%d)", s, l)
	}

	// 插入：范围为新插入的文本
	d.InsertString(4, "xy")
	if s, l := d.DamagedRange(); s != 4 || l != 6 {
		t.Fatalf("after insert = (%d,%d), want (4,6)", s, l)
	}
	// 之前的损坏尾部在编辑之后：随编辑平移
	d.Remove(1, 2)
	if s, l := d.DamagedRange(); s != 1 || l != 5 {
		t.Fatalf("after remove = (%d,%d), want (1,5)", s, l)
	}
	// 编辑超出之前的尾部：收拢到新编辑
	d.Replace(7, 9, NewPlain("abc", style.DefaultChar, style.DefaultParagraph), 0, 3)
	if s, l := d.DamagedRange(); s != 1 || l != 10 {
		t.Fatalf("after replace = (%d,%d), want (1,10)", s, l)
	}
}

func TestTimestamp(t *testing.T) {
	d := New()
	ts := d.Timestamp()
	d.Replace(0, 0, nil, 0, 0)
	if d.Timestamp() != ts {
		t.Fatalf("no-op Replace changed timestamp")
	}
	d.InsertString(0, "a")
	d.SetCharStyle(0, 1, style.Char{Family: "go", Size: 20})
	d.SetParagraphStyle(0, 0, style.Paragraph{Flush: style.FlushCenter})
	if got := d.Timestamp(); got != ts+3 {
		t.Fatalf("timestamp = %d, want %d", got, ts+3)
	}
}

func TestReplacePanicsOnBadRange(t *testing.T) {
	d := New()
	d.InsertString(0, "abc")
	for _, r := range [][2]int{{-1, 1}, {2, 1}, {0, 4}} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("Replace(%d,%d) did not panic", r[0], r[1])
				}
			}()
			d.Replace(r[0], r[1], nil, 0, 0)
		}()
	}
}

func TestCharStyleRuns(t *testing.T) {
	bold := style.DefaultChar
	bold.Bold = true

	d := New()
	d.InsertString(0, "plain text")
	d.SetCharStyle(6, 10, bold)
	if got := d.CharStyleLimit(0); got != 6 {
		t.Fatalf("CharStyleLimit(0) = %d, want 6", got)
	}
	if !d.CharStyleAt(7).Bold {
		t.Fatalf("CharStyleAt(7) is not bold")
	}
	// 输入继承前一个字符的样式
	d.InsertString(10, "!")
	if !d.CharStyleAt(10).Bold || d.CharStyleLimit(6) != 11 {
		t.Fatalf("typed character did not extend the bold run")
	}
	// 样式相同的相邻区间合并
	d.SetCharStyle(0, 6, bold)
	if runs := d.CharStyleRuns(0, d.Len()); len(runs) != 1 {
		t.Fatalf("runs = %v, want a single run", runs)
	}
}

func TestParagraphStyleSurvivesEdits(t *testing.T) {
	centered := style.DefaultParagraph
	centered.Flush = style.FlushCenter

	d := New()
	d.InsertString(0, "one\ntwo\nthree")
	d.SetParagraphStyle(4, 5, centered)
	if got := d.ParagraphStyleAt(2).Flush; got != style.FlushLeading {
		t.Fatalf("first paragraph flush = %v", got)
	}

	d.InsertString(5, "xx")
	if got := d.ParagraphStyleAt(5).Flush; got != style.FlushCenter {
		t.Fatalf("typing changed paragraph style to %v", got)
	}
	d.InsertString(4, "y")
	if got := d.ParagraphStyleAt(4).Flush; got != style.FlushCenter {
		t.Fatalf("typing at paragraph start changed style to %v", got)
	}

	// 删除分隔符：后一段并入前一段，采用前一段的样式
	d.Remove(3, 4)
	if got := d.String(); got != "oneytxxwo\nthree" {
		t.Fatalf("text = %q", got)
	}
	if got := d.ParagraphStyleAt(5).Flush; got != style.FlushLeading {
		t.Fatalf("merged paragraph flush = %v, want leading", got)
	}
	if got := d.ParagraphCount(); got != 2 {
		t.Fatalf("ParagraphCount = %d, want 2", got)
	}
}

func TestCopyKeepsStyles(t *testing.T) {
	bold := style.DefaultChar
	bold.Bold = true
	right := style.DefaultParagraph
	right.Flush = style.FlushTrailing

	d := New()
	d.InsertString(0, "ab\ncd")
	d.SetCharStyle(3, 4, bold)
	d.SetParagraphStyle(3, 3, right)

	c := d.Copy(1, 5)
	if got := c.String(); got != "b\ncd" {
		t.Fatalf("Copy text = %q", got)
	}
	if !c.CharStyleAt(2).Bold || c.CharStyleAt(3).Bold {
		t.Fatalf("Copy lost character styles")
	}
	if c.ParagraphStyleAt(2).Flush != style.FlushTrailing || c.ParagraphStyleAt(0).Flush != style.FlushLeading {
		t.Fatalf("Copy lost paragraph styles")
	}

	e := New()
	e.Append(c)
	if e.String() != c.String() || e.ParagraphStyleAt(3).Flush != style.FlushTrailing {
		t.Fatalf("Append into empty document lost paragraph style")
	}
}

func TestIterator(t *testing.T) {
	d := New()
	d.InsertString(0, "abcde")
	it := d.Iterator(1, 4)
	var fwd []rune
	for r, ok := it.First(); ok; r, ok = it.Next() {
		fwd = append(fwd, r)
	}
	if string(fwd) != "bcd" {
		t.Fatalf("forward = %q", string(fwd))
	}
	var back []rune
	for r, ok := it.Last(); ok; r, ok = it.Prev() {
		back = append(back, r)
	}
	if string(back) != "dcb" {
		t.Fatalf("backward = %q", string(back))
	}
	if _, ok := it.SetIndex(4); ok || it.Index() != 4 {
		t.Fatalf("SetIndex(limit) should report done")
	}
}
