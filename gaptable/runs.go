package gaptable

import "fmt"

// Run is a run start relative to the beginning of an inserted range,
// together with the value in effect from there on.
type Run[V comparable] struct {
	Start int
	Value V
}

// RunTable records the boundaries of runs over a text of a given length.
// Only run starts are stored; a run extends to the next start or to the end
// of the text. The first run always starts at 0.
type RunTable[V comparable] struct {
	t     *Table[V]
	total [1]int
}

// NewRunTable returns a table holding a single run at 0 with value v.
func NewRunTable[V comparable](v V) *RunTable[V] {
	r := &RunTable[V]{t: New[V](1, 4)}
	r.t.Push([]int{0}, v)
	return r
}

func (r *RunTable[V]) totals(length int) []int {
	r.total[0] = length
	return r.total[:]
}

// Count returns the number of runs.
func (r *RunTable[V]) Count() int { return r.t.Len() }

// Cap returns the physical capacity of the table.
func (r *RunTable[V]) Cap() int { return r.t.Cap() }

// ShiftTableTo moves the gap so that the last positive entry is the
// greatest run start < pos.
func (r *RunTable[V]) ShiftTableTo(pos, length int) {
	r.t.ShiftTo(0, pos, r.totals(length))
}

// FindRunContaining returns the index of the run containing pos: the
// greatest run start <= pos. It returns -1 if pos precedes the first run
// and the last run if pos is past the end.
func (r *RunTable[V]) FindRunContaining(pos, length int) int {
	return r.t.Find(0, pos, r.totals(length))
}

// RunStart returns the start of run i.
func (r *RunTable[V]) RunStart(i, length int) int {
	return r.t.Key(0, i, r.totals(length))
}

// RunLimit returns the end of run i.
func (r *RunTable[V]) RunLimit(i, length int) int {
	if i+1 < r.t.Len() {
		return r.t.Key(0, i+1, r.totals(length))
	}
	return length
}

// Value returns the value of run i.
func (r *RunTable[V]) Value(i int) V { return r.t.At(i) }

// SetValue replaces the value of run i.
func (r *RunTable[V]) SetValue(i int, v V) { r.t.Set(i, v) }

// ExpandRunTable doubles the capacity.
func (r *RunTable[V]) ExpandRunTable() { r.t.Expand() }

// Compress shrinks the capacity to the number of runs.
func (r *RunTable[V]) Compress() { r.t.Compress() }

// Resize sets the capacity; shrinking below the run count panics.
func (r *RunTable[V]) Resize(n int) { r.t.Resize(n) }

// Replace rewrites the runs of [start,limit) of a text of oldLength with
// runs covering insLength characters. runs must start at 0 when insLength is
// positive and be empty otherwise. With merge set, adjacent runs with equal
// values are coalesced.
func (r *RunTable[V]) Replace(start, limit, oldLength, insLength int, runs []Run[V], merge bool) {
	if start < 0 || start > limit || limit > oldLength {
		panic(fmt.Sprintf("gaptable: Replace: bad range [%d,%d) of %d", start, limit, oldLength))
	}
	if insLength > 0 && (len(runs) == 0 || runs[0].Start != 0) {
		panic("gaptable: Replace: inserted runs must start at 0")
	}
	newLength := oldLength - (limit - start) + insLength

	head := r.FindRunContaining(start, oldLength)
	if head < 0 {
		head = 0
	}
	headValue := r.Value(head)
	hasTail := limit < oldLength
	var tailValue V
	if hasTail {
		tailValue = r.Value(r.FindRunContaining(limit, oldLength))
	}

	r.ShiftTableTo(start, oldLength)
	old := r.totals(oldLength)
	drop := 0
	for r.t.negStart+drop < len(r.t.elems) {
		k := r.t.keys[0][r.t.negStart+drop] + old[0]
		if k < limit || (k == limit && !hasTail) {
			drop++
			continue
		}
		break
	}
	r.t.DropNegative(drop)

	last := func() (V, bool) {
		if r.t.posEnd < 0 {
			var zero V
			return zero, false
		}
		return r.t.elems[r.t.posEnd], true
	}

	for _, run := range runs {
		if run.Start >= insLength {
			break
		}
		if v, ok := last(); merge && ok && v == run.Value {
			continue
		}
		r.t.Push([]int{start + run.Start}, run.Value)
	}

	if hasTail {
		tailStart := start + insLength
		nextIsTail := r.t.negStart < len(r.t.elems) &&
			r.t.keys[0][r.t.negStart]+newLength == tailStart
		v, ok := last()
		switch {
		case nextIsTail:
			if merge && ok && v == r.t.elems[r.t.negStart] {
				r.t.DropNegative(1)
			}
		case merge && ok && v == tailValue:
		default:
			r.t.Push([]int{tailStart}, tailValue)
		}
	}

	if r.t.Len() == 0 {
		r.t.Push([]int{0}, headValue)
	}
}

// SetRange sets the value of [start,limit) to v.
func (r *RunTable[V]) SetRange(start, limit, length int, v V, merge bool) {
	if start == limit {
		return
	}
	r.Replace(start, limit, length, limit-start, []Run[V]{{Start: 0, Value: v}}, merge)
}

// HasBoundary reports whether a run starts at pos.
func (r *RunTable[V]) HasBoundary(pos, length int) bool {
	i := r.FindRunContaining(pos, length)
	return i >= 0 && r.RunStart(i, length) == pos
}

// SetBoundary makes a run with value v start at pos. If a run already
// starts there its value is replaced.
func (r *RunTable[V]) SetBoundary(pos, length int, v V) {
	r.ShiftTableTo(pos, length)
	if r.t.negStart < len(r.t.elems) && r.t.keys[0][r.t.negStart]+length == pos {
		r.t.elems[r.t.negStart] = v
		return
	}
	r.t.Push([]int{pos}, v)
}

// RemoveBoundary removes the run start at pos, merging the run into its
// predecessor. The run at 0 is never removed.
func (r *RunTable[V]) RemoveBoundary(pos, length int) {
	if pos == 0 {
		return
	}
	r.ShiftTableTo(pos, length)
	if r.t.negStart < len(r.t.elems) && r.t.keys[0][r.t.negStart]+length == pos {
		r.t.DropNegative(1)
	}
}

// Runs returns the runs of [start,limit) relative to start.
func (r *RunTable[V]) Runs(start, limit, length int) []Run[V] {
	if start >= limit {
		return nil
	}
	i := r.FindRunContaining(start, length)
	if i < 0 {
		i = 0
	}
	var out []Run[V]
	for ; i < r.Count(); i++ {
		s := r.RunStart(i, length)
		if s >= limit {
			break
		}
		if s < start {
			s = start
		}
		out = append(out, Run[V]{Start: s - start, Value: r.Value(i)})
	}
	return out
}
