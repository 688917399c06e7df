package gaptable

import "fmt"

// Table is a gap-indexed ordered table of payloads of type E.
//
// Every entry carries one integer key per column. Keys in each column are
// strictly increasing in logical order. Entries before the gap store their
// keys as absolute values; entries after the gap store key-total, where
// total is the column's current extent passed in by the caller. Logical
// indexes run over the positive entries followed by the negative ones.
type Table[E any] struct {
	keys     [][]int
	elems    []E
	posEnd   int
	negStart int
	cache    []regionCache
}

type regionCache struct {
	pos, neg           SearchIndex
	posValid, negValid bool
}

// New returns an empty table with the given number of key columns.
func New[E any](columns, capacity int) *Table[E] {
	if columns < 1 {
		panic("gaptable: New: need at least one key column")
	}
	if capacity < 1 {
		capacity = 1
	}
	t := &Table[E]{
		keys:     make([][]int, columns),
		elems:    make([]E, capacity),
		posEnd:   -1,
		negStart: capacity,
		cache:    make([]regionCache, columns),
	}
	for c := range t.keys {
		t.keys[c] = make([]int, capacity)
	}
	return t
}

// Len returns the number of entries.
func (t *Table[E]) Len() int { return t.posEnd + 1 + len(t.elems) - t.negStart }

// Cap returns the physical capacity.
func (t *Table[E]) Cap() int { return len(t.elems) }

// Split returns the number of positive entries, which is also the logical
// index of the first negative entry.
func (t *Table[E]) Split() int { return t.posEnd + 1 }

func (t *Table[E]) physical(i int) int {
	if i < 0 || i >= t.Len() {
		panic(fmt.Sprintf("gaptable: index %d out of range [0,%d)", i, t.Len()))
	}
	if i <= t.posEnd {
		return i
	}
	return i - t.posEnd - 1 + t.negStart
}

func (t *Table[E]) logical(p int) int {
	if p <= t.posEnd {
		return p
	}
	return p - t.negStart + t.posEnd + 1
}

// At returns the payload of entry i.
func (t *Table[E]) At(i int) E { return t.elems[t.physical(i)] }

// Set replaces the payload of entry i.
func (t *Table[E]) Set(i int, e E) { t.elems[t.physical(i)] = e }

// Key returns the absolute key of entry i in column col.
func (t *Table[E]) Key(col, i int, totals []int) int {
	p := t.physical(i)
	k := t.keys[col][p]
	if p >= t.negStart {
		k += totals[col]
	}
	return k
}

func (t *Table[E]) invalidate() {
	for c := range t.cache {
		t.cache[c].posValid = false
		t.cache[c].negValid = false
	}
}

// ShiftToIndex moves the gap so that logical entries [0,n) are positive.
func (t *Table[E]) ShiftToIndex(n int, totals []int) {
	if n < 0 || n > t.Len() {
		panic(fmt.Sprintf("gaptable: ShiftToIndex: %d out of range [0,%d]", n, t.Len()))
	}
	cur := t.posEnd + 1
	if n == cur {
		return
	}
	var zero E
	if n < cur {
		for p := cur - 1; p >= n; p-- {
			t.negStart--
			for c := range t.keys {
				t.keys[c][t.negStart] = t.keys[c][p] - totals[c]
			}
			t.elems[t.negStart] = t.elems[p]
			if p != t.negStart {
				t.elems[p] = zero
			}
		}
	} else {
		for k := cur; k < n; k++ {
			t.posEnd++
			for c := range t.keys {
				t.keys[c][t.posEnd] = t.keys[c][t.negStart] + totals[c]
			}
			t.elems[t.posEnd] = t.elems[t.negStart]
			if t.posEnd != t.negStart {
				t.elems[t.negStart] = zero
			}
			t.negStart++
		}
	}
	t.posEnd = n - 1
	t.invalidate()
}

// ShiftTo moves the gap so that the last positive entry is the greatest
// entry whose key in column col is < pos.
func (t *Table[E]) ShiftTo(col, pos int, totals []int) {
	t.ShiftToIndex(t.Find(col, pos-1, totals)+1, totals)
}

func (t *Table[E]) positiveIndex(col int) *SearchIndex {
	rc := &t.cache[col]
	if !rc.posValid {
		rc.pos.Reset(t.keys[col], 0, t.posEnd+1)
		rc.posValid = true
	}
	return &rc.pos
}

func (t *Table[E]) negativeIndex(col int) *SearchIndex {
	rc := &t.cache[col]
	if !rc.negValid {
		rc.neg.Reset(t.keys[col], t.negStart, len(t.elems)-t.negStart)
		rc.negValid = true
	}
	return &rc.neg
}

// Find returns the logical index of the greatest entry whose key in column
// col is <= pos, or -1 if pos precedes every entry.
func (t *Table[E]) Find(col, pos int, totals []int) int {
	keys := t.keys[col]
	if t.negStart < len(t.elems) && pos >= keys[t.negStart]+totals[col] {
		rel := pos - totals[col]
		j := t.negativeIndex(col).FindIndex(rel + 1)
		if keys[j] > rel {
			j--
		}
		return t.logical(j)
	}
	if t.posEnd < 0 {
		return -1
	}
	if keys[t.posEnd] <= pos {
		return t.posEnd
	}
	j := t.positiveIndex(col).FindIndex(pos + 1)
	if keys[j] > pos {
		j--
	}
	return j
}

// Push appends an entry with absolute keys to the end of the positive
// region, growing the table if the gap is empty.
func (t *Table[E]) Push(keys []int, e E) {
	if len(keys) != len(t.keys) {
		panic(fmt.Sprintf("gaptable: Push: %d keys for %d columns", len(keys), len(t.keys)))
	}
	if t.posEnd+1 == t.negStart {
		t.Expand()
	}
	t.posEnd++
	for c, k := range keys {
		t.keys[c][t.posEnd] = k
		t.cache[c].posValid = false
	}
	t.elems[t.posEnd] = e
}

// TruncatePositive drops positive entries so that n remain.
func (t *Table[E]) TruncatePositive(n int) {
	if n < 0 || n > t.posEnd+1 {
		panic(fmt.Sprintf("gaptable: TruncatePositive: %d out of range [0,%d]", n, t.posEnd+1))
	}
	var zero E
	for p := n; p <= t.posEnd; p++ {
		t.elems[p] = zero
	}
	t.posEnd = n - 1
	for c := range t.cache {
		t.cache[c].posValid = false
	}
}

// DropNegative removes the first k negative entries.
func (t *Table[E]) DropNegative(k int) {
	if k < 0 || t.negStart+k > len(t.elems) {
		panic(fmt.Sprintf("gaptable: DropNegative: %d of %d", k, len(t.elems)-t.negStart))
	}
	var zero E
	for p := t.negStart; p < t.negStart+k; p++ {
		t.elems[p] = zero
	}
	t.negStart += k
	for c := range t.cache {
		t.cache[c].negValid = false
	}
}

// Expand doubles the capacity.
func (t *Table[E]) Expand() {
	t.Resize(2 * len(t.elems))
}

// Compress shrinks the capacity to the number of entries, never below one.
func (t *Table[E]) Compress() {
	n := t.Len()
	if n < 1 {
		n = 1
	}
	t.Resize(n)
}

// Resize sets the capacity to n. Shrinking below the number of entries
// would lose data and panics.
func (t *Table[E]) Resize(n int) {
	if n < t.Len() || n < 1 {
		panic(fmt.Sprintf("gaptable: Resize: %d below minimum %d", n, t.Len()))
	}
	old := len(t.elems)
	nneg := old - t.negStart
	elems := make([]E, n)
	copy(elems, t.elems[:t.posEnd+1])
	copy(elems[n-nneg:], t.elems[t.negStart:])
	for c := range t.keys {
		keys := make([]int, n)
		copy(keys, t.keys[c][:t.posEnd+1])
		copy(keys[n-nneg:], t.keys[c][t.negStart:])
		t.keys[c] = keys
	}
	t.elems = elems
	t.negStart = n - nneg
	t.invalidate()
}
