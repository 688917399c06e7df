// Package gaptable implements gap-indexed ordered tables.
//
// A gap-indexed table is an array split into a positive prefix whose keys
// are offsets from the start and a negative suffix whose keys are offsets
// from the end, with an unused gap between them. Inserting or deleting near
// the gap is O(1), and an edit that changes the total length leaves every
// entry after the edit valid without rewriting it.
package gaptable

import "fmt"

// maxSearchLength bounds the ladder used by SearchIndex.
const maxSearchLength = 1 << 17

// SearchIndex finds elements in a sorted segment of an int slice.
//
// The index aliases the slice it was seeded with. It must be reset whenever
// the segment's contents, offset or length change.
type SearchIndex struct {
	data   []int
	first  int
	length int
	power  int // largest power of two <= length
}

// NewSearchIndex returns an index over data[first:first+length].
func NewSearchIndex(data []int, first, length int) *SearchIndex {
	s := &SearchIndex{}
	s.Reset(data, first, length)
	return s
}

// Reset re-seeds the index over data[first:first+length].
func (s *SearchIndex) Reset(data []int, first, length int) {
	if length < 0 || first < 0 || first+length > len(data) {
		panic(fmt.Sprintf("gaptable: search index: bad segment [%d,%d) of %d", first, first+length, len(data)))
	}
	if length >= maxSearchLength {
		panic(fmt.Sprintf("gaptable: search index: length %d exceeds %d", length, maxSearchLength-1))
	}
	s.data = data
	s.first = first
	s.length = length
	s.power = 0
	for p := maxSearchLength >> 1; p > 0; p >>= 1 {
		if p <= length {
			s.power = p
			break
		}
	}
}

// FindIndex returns the index of the first element >= value. If value is
// greater than every element, the last valid index is returned. An empty
// segment yields first-1.
func (s *SearchIndex) FindIndex(value int) int {
	if s.length == 0 {
		return s.first - 1
	}
	// i is the index just before the range still under consideration.
	i := s.first - 1
	if s.data[s.first+s.power-1] < value {
		i = s.first + s.length - s.power - 1
	}
	for p := s.power >> 1; p > 0; p >>= 1 {
		if s.data[i+p] < value {
			i += p
		}
	}
	return i + 1
}

// Len returns the number of elements covered by the index.
func (s *SearchIndex) Len() int { return s.length }
