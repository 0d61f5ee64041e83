package geometry

import "math"

// Ring is a closed polygon ring of geographic vertices (lon as X, lat as Y).
// The first and last vertex may or may not coincide; both forms are accepted.
type Ring []Point2D

// Closed returns the ring with the first vertex appended if it is not
// already closed.
func (r Ring) Closed() Ring {
	if len(r) < 3 {
		return r
	}
	if r[0] == r[len(r)-1] {
		return r
	}
	out := make(Ring, len(r)+1)
	copy(out, r)
	out[len(r)] = r[0]
	return out
}

// Area returns the absolute shoelace area of the ring.
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return math.Abs(sum) / 2
}

// Centroid returns the area-weighted centroid of the ring. Degenerate rings
// fall back to the vertex average.
func (r Ring) Centroid() Point2D {
	if len(r) < 3 {
		return Centroid(r)
	}

	var cx, cy, area float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := r[i].X*r[j].Y - r[j].X*r[i].Y
		cx += (r[i].X + r[j].X) * cross
		cy += (r[i].Y + r[j].Y) * cross
		area += cross
	}
	if math.Abs(area) < 1e-12 {
		return Centroid(r)
	}
	area /= 2
	return Point2D{X: cx / (6 * area), Y: cy / (6 * area)}
}

// Contains tests if a point is inside the ring using ray casting.
func (r Ring) Contains(p Point2D) bool {
	if len(r) < 3 {
		return false
	}

	inside := false
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := r[i], r[j]
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}
	return inside
}

// SquareRing builds a closed axis-aligned ring from two opposite corners.
func SquareRing(a, b Point2D) Ring {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Ring{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
		{minX, minY},
	}
}
