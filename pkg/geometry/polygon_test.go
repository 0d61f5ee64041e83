package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingClosed(t *testing.T) {
	open := Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	closed := open.Closed()
	assert.Len(t, closed, 5)
	assert.Equal(t, closed[0], closed[4])

	// Already closed rings are returned unchanged.
	assert.Len(t, closed.Closed(), 5)
}

func TestRingCentroid(t *testing.T) {
	square := Ring{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	c := square.Centroid()
	assert.InDelta(t, 1.0, c.X, 1e-9)
	assert.InDelta(t, 1.0, c.Y, 1e-9)
}

func TestRingContains(t *testing.T) {
	square := Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	assert.True(t, square.Contains(Point2D{2, 2}))
	assert.False(t, square.Contains(Point2D{5, 2}))
	assert.False(t, square.Contains(Point2D{-1, -1}))
}

func TestSquareRing(t *testing.T) {
	r := SquareRing(Point2D{3, 1}, Point2D{-2, 4})
	assert.Len(t, r, 5)
	assert.Equal(t, r[0], r[4])
	assert.True(t, r.Contains(Point2D{0, 2}))
	assert.InDelta(t, 15.0, r.Area(), 1e-9)
}
