package document

// gapBuffer stores the characters of a document with a movable gap at the
// last edit point.
type gapBuffer struct {
	data     []rune
	gapStart int
	gapEnd   int
}

const minGap = 64

func (g *gapBuffer) Len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

func (g *gapBuffer) ensureGap(n int) {
	if n <= g.gapEnd-g.gapStart {
		return
	}
	extra := n + minGap + len(g.data)/2
	data := make([]rune, len(g.data)+extra)
	copy(data, g.data[:g.gapStart])
	tail := len(g.data) - g.gapEnd
	gapEnd := len(data) - tail
	copy(data[gapEnd:], g.data[g.gapEnd:])
	g.data = data
	g.gapEnd = gapEnd
}

func (g *gapBuffer) moveGap(pos int) {
	if pos == g.gapStart {
		return
	}
	if pos < g.gapStart {
		delta := g.gapStart - pos
		copy(g.data[g.gapEnd-delta:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart -= delta
		g.gapEnd -= delta
		return
	}
	delta := pos - g.gapStart
	copy(g.data[g.gapStart:g.gapStart+delta], g.data[g.gapEnd:g.gapEnd+delta])
	g.gapStart += delta
	g.gapEnd += delta
}

// replace swaps [start,limit) for rs. The range must be valid.
func (g *gapBuffer) replace(start, limit int, rs []rune) {
	g.moveGap(limit)
	g.gapStart = start
	g.ensureGap(len(rs))
	copy(g.data[g.gapStart:], rs)
	g.gapStart += len(rs)
}

func (g *gapBuffer) at(i int) rune {
	if i < g.gapStart {
		return g.data[i]
	}
	return g.data[i+g.gapEnd-g.gapStart]
}

func (g *gapBuffer) slice(a, b int) []rune {
	out := make([]rune, 0, b-a)
	if a < g.gapStart {
		out = append(out, g.data[a:min(b, g.gapStart)]...)
	}
	if b > g.gapStart {
		d := g.gapEnd - g.gapStart
		out = append(out, g.data[max(a, g.gapStart)+d:b+d]...)
	}
	return out
}
