package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortQuadPointsAllOrders(t *testing.T) {
	tl := Point2D{10, 20}
	tr := Point2D{200, 25}
	bl := Point2D{15, 300}
	br := Point2D{210, 310}

	inputs := [][]Point2D{
		{tl, tr, bl, br},
		{br, bl, tr, tl},
		{tr, bl, br, tl},
		{bl, tl, br, tr},
	}
	for _, in := range inputs {
		q, err := SortQuadPoints(in)
		require.NoError(t, err)
		assert.Equal(t, Quad{tl, tr, bl, br}, q)
	}
}

func TestSortQuadPointsTopPairLeftFirst(t *testing.T) {
	q, err := SortQuadPoints([]Point2D{
		{100, 0}, {0, 0}, {100, 50}, {0, 50},
	})
	require.NoError(t, err)

	// Two lowest-y points occupy slots 0 and 1, lower x first.
	assert.Equal(t, Point2D{0, 0}, q[0])
	assert.Equal(t, Point2D{100, 0}, q[1])
	assert.Equal(t, Point2D{0, 50}, q[2])
	assert.Equal(t, Point2D{100, 50}, q[3])
}

func TestSortQuadPointsRequiresFour(t *testing.T) {
	_, err := SortQuadPoints([]Point2D{{0, 0}, {1, 1}, {2, 2}})
	assert.Error(t, err)

	_, err = SortQuadPoints(make([]Point2D, 5))
	assert.Error(t, err)
}

func TestCropSize(t *testing.T) {
	q := Quad{{10, 20}, {110, 22}, {12, 100}, {112, 102}}
	w, h := q.CropSize()
	assert.Equal(t, 100, w)
	assert.Equal(t, 80, h)
}

func TestPerspectiveTransformMapsCorners(t *testing.T) {
	q := Quad{{5, 10}, {640, 30}, {20, 470}, {600, 450}}
	m, err := q.PerspectiveTransform(320, 240)
	require.NoError(t, err)

	dst := [4]Point2D{{0, 0}, {319, 0}, {0, 239}, {319, 239}}
	for i := range q {
		got := ApplyHomography(m, q[i])
		assert.InDelta(t, dst[i].X, got.X, 1e-6)
		assert.InDelta(t, dst[i].Y, got.Y, 1e-6)
	}
}

func TestPerspectiveTransformRejectsBadSize(t *testing.T) {
	q := Quad{{0, 0}, {10, 0}, {0, 10}, {10, 10}}
	_, err := q.PerspectiveTransform(0, 10)
	assert.Error(t, err)
}
