package detect

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"exposure-scout/pkg/geometry"
)

// ErrManualCropIncomplete is returned when the operator selected fewer or
// more than four points.
var ErrManualCropIncomplete = errors.New("manual crop requires exactly four points")

// ManualCrop applies the operator's four-point perspective crop to the
// full-resolution backup image. The points may arrive in any order; they are
// sorted into a quad, the target rectangle is sized from the average of the
// opposing edge lengths, and the perspective transform is applied to the
// undrawn source image.
func ManualCrop(src gocv.Mat, points []geometry.Point2D) (gocv.Mat, error) {
	if len(points) != 4 {
		return gocv.Mat{}, fmt.Errorf("%w: got %d", ErrManualCropIncomplete, len(points))
	}
	if src.Empty() {
		return gocv.Mat{}, errors.New("empty source image")
	}

	quad, err := geometry.SortQuadPoints(points)
	if err != nil {
		return gocv.Mat{}, err
	}

	w, h := quad.CropSize()
	if w < 1 || h < 1 {
		return gocv.Mat{}, fmt.Errorf("degenerate crop region %dx%d", w, h)
	}

	homography, err := quad.PerspectiveTransform(w, h)
	if err != nil {
		return gocv.Mat{}, err
	}

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, homography.At(r, c))
		}
	}

	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, m, image.Pt(w, h))
	return dst, nil
}
