package geometry

import "math"

// Viewpoint heading offsets relative to the road bearing, in degrees.
// Left, center, right pan of the camera.
var HeadingOffsets = [3]float64{-30, 0, 30}

// Azimuth computes the forward azimuth in degrees from the first coordinate
// to the second on a spherical Earth model. The result is normalized to
// [0, 360), measured clockwise from true north.
func Azimuth(from, to Coordinate) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return NormalizeBearing(deg)
}

// NormalizeBearing maps an angle in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Headings derives the three camera headings for a road bearing: the camera
// faces roughly opposite the road direction, panned left, straight, and right.
func Headings(roadBearing float64) [3]float64 {
	var out [3]float64
	for i, off := range HeadingOffsets {
		out[i] = NormalizeBearing(roadBearing + off + 180)
	}
	return out
}
