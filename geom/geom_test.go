package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectOps(t *testing.T) {
	assert := assert.New(t)

	r := Rect{X: 0, Y: 0, W: 10, H: 10}
	s := Rect{X: 5, Y: 5, W: 10, H: 10}

	assert.Equal(Rect{X: 5, Y: 5, W: 5, H: 5}, r.Intersect(s))
	assert.Equal(Rect{X: 0, Y: 0, W: 15, H: 15}, r.Union(s))
	assert.Equal(Rect{}, r.Intersect(Rect{X: 20, Y: 20, W: 1, H: 1}))
	assert.Equal(s, Rect{}.Union(s))
	assert.True(r.Contains(Point{0, 0}))
	assert.False(r.Contains(Point{10, 5}))
	assert.Equal(Rect{X: 2, Y: 1, W: 3, H: 4}, RectFromCorners(5, 5, 2, 1))
	assert.Equal(Rect{X: 1, Y: 2, W: 10, H: 10}, r.Translate(Point{1, 2}))
}
