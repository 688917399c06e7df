package document

import "fmt"

// Iterator walks the characters of [Start,Limit) of a Source in either
// direction.
type Iterator struct {
	src          Source
	start, limit int
	pos          int
}

// NewIterator returns an iterator positioned at start.
func NewIterator(src Source, start, limit int) *Iterator {
	if start < 0 || start > limit || limit > src.Len() {
		panic(fmt.Sprintf("document: NewIterator: bad range [%d,%d) of %d", start, limit, src.Len()))
	}
	return &Iterator{src: src, start: start, limit: limit, pos: start}
}

func (it *Iterator) Start() int { return it.start }
func (it *Iterator) Limit() int { return it.limit }
func (it *Iterator) Index() int { return it.pos }

// SetIndex moves to i, which may equal Limit.
func (it *Iterator) SetIndex(i int) (rune, bool) {
	if i < it.start || i > it.limit {
		panic(fmt.Sprintf("document: Iterator.SetIndex: %d outside [%d,%d]", i, it.start, it.limit))
	}
	it.pos = i
	return it.Current()
}

// Current returns the character at the current index; ok is false at Limit.
func (it *Iterator) Current() (r rune, ok bool) {
	if it.pos >= it.limit || it.pos < it.start {
		return 0, false
	}
	return it.src.CharAt(it.pos), true
}

func (it *Iterator) First() (rune, bool) {
	it.pos = it.start
	return it.Current()
}

// Last moves to the final character, or to Limit for an empty range.
func (it *Iterator) Last() (rune, bool) {
	it.pos = max(it.limit-1, it.start)
	return it.Current()
}

// Next advances and returns the new current character.
func (it *Iterator) Next() (rune, bool) {
	if it.pos < it.limit {
		it.pos++
	}
	return it.Current()
}

// Prev steps back; at Start it stays and reports false.
func (it *Iterator) Prev() (rune, bool) {
	if it.pos <= it.start {
		return 0, false
	}
	it.pos--
	return it.Current()
}
