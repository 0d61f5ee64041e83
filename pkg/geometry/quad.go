package geometry

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Quad holds the four corners of a quadrilateral in the fixed order
// top-left, top-right, bottom-left, bottom-right.
type Quad [4]Point2D

// SortQuadPoints orders four arbitrary points into a Quad. Points are ranked
// by vertical coordinate; the two uppermost form the top pair and the two
// lowermost the bottom pair, each pair sorted left to right.
func SortQuadPoints(points []Point2D) (Quad, error) {
	if len(points) != 4 {
		return Quad{}, fmt.Errorf("need exactly 4 points, got %d", len(points))
	}

	pts := make([]Point2D, 4)
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})

	top := pts[:2]
	bottom := pts[2:]
	if top[0].X > top[1].X {
		top[0], top[1] = top[1], top[0]
	}
	if bottom[0].X > bottom[1].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}

	return Quad{top[0], top[1], bottom[0], bottom[1]}, nil
}

// CropSize computes the target rectangle dimensions for a quad: width and
// height are the averages of the two opposing edge lengths, truncated.
func (q Quad) CropSize() (int, int) {
	w := int(((q[1].X - q[0].X) + (q[3].X - q[2].X)) / 2)
	h := int(((q[2].Y - q[0].Y) + (q[3].Y - q[1].Y)) / 2)
	return w, h
}

// PerspectiveTransform solves the 3x3 homography mapping the quad onto an
// axis-aligned width x height rectangle with corners (0,0), (w-1,0), (0,h-1),
// (w-1,h-1). The system is the standard direct linear transform with the
// bottom-right matrix entry fixed at 1.
func (q Quad) PerspectiveTransform(width, height int) (*mat.Dense, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}

	w := float64(width - 1)
	h := float64(height - 1)
	dst := [4]Point2D{{0, 0}, {w, 0}, {0, h}, {w, h}}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := q[i].X, q[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("degenerate quadrilateral: %w", err)
	}

	m := mat.NewDense(3, 3, []float64{
		sol.AtVec(0), sol.AtVec(1), sol.AtVec(2),
		sol.AtVec(3), sol.AtVec(4), sol.AtVec(5),
		sol.AtVec(6), sol.AtVec(7), 1,
	})
	return m, nil
}

// ApplyHomography maps a point through a 3x3 projective transform.
func ApplyHomography(m *mat.Dense, p Point2D) Point2D {
	x := m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)
	y := m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)
	w := m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)
	if w == 0 {
		return Point2D{}
	}
	return Point2D{X: x / w, Y: y / w}
}
