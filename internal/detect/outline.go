package detect

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"exposure-scout/pkg/geometry"
)

// Reference area of a 640x480 base capture; dash parameters are defined at
// this size and scaled from it.
const referenceArea = 640 * 480

// Dash geometry tier boundaries in square pixels.
const (
	tierSmall = 600000
	tierLarge = 1000000
)

// DashParams returns the dash step, dash length, and line thickness for an
// image of the given area. The dash length is fixed; the step and the line
// thickness scale in three tiers so the outline stays visually
// proportionate.
func DashParams(area int) (step, dash, thickness int) {
	step = area * 14 / referenceArea
	thickness = area * 3 / referenceArea

	switch {
	case area <= tierSmall:
		// base scaling
	case area < tierLarge:
		step = step * 3 / 4
	default:
		step = step * 3 / 8
		thickness = thickness * 5 / 8
	}

	if step < 2 {
		step = 2
	}
	if thickness < 1 {
		thickness = 1
	}
	return step, 5, thickness
}

// outlineColor is the dashed box color (red in BGR byte order).
var outlineColor = color.RGBA{R: 255}

// DrawDashedRect draws a dashed rectangle onto the display copy. The pixels
// used for classification must come from a separate mat.
func DrawDashedRect(img *gocv.Mat, box geometry.RectInt) {
	step, dash, thickness := DashParams(img.Cols() * img.Rows())

	x2 := box.X + box.Width
	y2 := box.Y + box.Height

	for x := box.X; x < x2; x += step {
		end := minInt(x+dash, x2)
		gocv.Line(img, image.Pt(x, box.Y), image.Pt(end, box.Y), outlineColor, thickness)
		gocv.Line(img, image.Pt(x, y2), image.Pt(end, y2), outlineColor, thickness)
	}
	for y := box.Y; y < y2; y += step {
		end := minInt(y+dash, y2)
		gocv.Line(img, image.Pt(box.X, y), image.Pt(box.X, end), outlineColor, thickness)
		gocv.Line(img, image.Pt(x2, y), image.Pt(x2, end), outlineColor, thickness)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
