package detect

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Placeholder messages shown in place of a viewpoint image.
const (
	NoBuildingMessage  = "No Building detected"
	UnavailableMessage = "Street View not available"
)

// Placeholder renders a neutral image with the message centered, at the
// base capture resolution.
func Placeholder(message string) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(230, 230, 230, 0), 480, 640, gocv.MatTypeCV8UC3)

	size := gocv.GetTextSize(message, gocv.FontHersheySimplex, 1.0, 2)
	origin := image.Pt((img.Cols()-size.X)/2, (img.Rows()+size.Y)/2)
	gocv.PutText(&img, message, origin, gocv.FontHersheySimplex, 1.0,
		color.RGBA{R: 40, G: 40, B: 40}, 2)
	return img
}
