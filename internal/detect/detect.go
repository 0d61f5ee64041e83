// Package detect wraps the building object detector and produces the
// cropped and annotated per-viewpoint images.
package detect

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"exposure-scout/pkg/geometry"
)

// BuildingLabel is the detector class label of interest.
const BuildingLabel = "building-xzyh"

// Detection confidence floor; boxes below it are discarded.
const minConfidence = 0.25

// Detection is one candidate bounding box from the object detector.
type Detection struct {
	Box        geometry.RectInt
	Confidence float64
	Label      string
}

// Best selects the qualifying detection with the maximum confidence for the
// given label. The comparison is strictly greater-than, so the first
// detection seen wins ties. Returns false if no detection qualifies.
func Best(detections []Detection, label string) (Detection, bool) {
	var best Detection
	found := false
	for _, d := range detections {
		if d.Label != label {
			continue
		}
		if !found || d.Confidence > best.Confidence {
			best = d
			found = true
		}
	}
	return best, found
}

// Detector runs the opaque detection model over viewpoint images.
type Detector struct {
	net     gocv.Net
	classes []string
}

// NewDetector loads the detection network from an ONNX model file. The class
// list maps output indices to labels; index 0 is the building class.
func NewDetector(modelPath string) (*Detector, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("load detector model %s", modelPath)
	}
	return &Detector{net: net, classes: []string{BuildingLabel}}, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}

// Detect runs the model on one image and returns all candidate boxes in
// output traversal order.
func (d *Detector) Detect(img gocv.Mat) ([]Detection, error) {
	if img.Empty() {
		return nil, errors.New("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(640, 640),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output rows are [cx, cy, w, h, objectness, class scores...] in the
	// 640x640 network space; boxes are mapped back to image coordinates.
	dims := output.Size()
	if len(dims) < 3 {
		return nil, fmt.Errorf("unexpected detector output shape %v", dims)
	}
	rows := dims[1]
	cols := dims[2]

	sx := float64(img.Cols()) / 640.0
	sy := float64(img.Rows()) / 640.0

	var detections []Detection
	for r := 0; r < rows; r++ {
		objectness := float64(output.GetFloatAt3(0, r, 4))
		if objectness < minConfidence {
			continue
		}

		classIdx := 0
		classScore := 0.0
		for c := 5; c < cols; c++ {
			score := float64(output.GetFloatAt3(0, r, c))
			if score > classScore {
				classScore = score
				classIdx = c - 5
			}
		}
		if classIdx >= len(d.classes) {
			continue
		}

		cx := float64(output.GetFloatAt3(0, r, 0)) * sx
		cy := float64(output.GetFloatAt3(0, r, 1)) * sy
		w := float64(output.GetFloatAt3(0, r, 2)) * sx
		h := float64(output.GetFloatAt3(0, r, 3)) * sy

		detections = append(detections, Detection{
			Box: geometry.RectInt{
				X:      int(cx - w/2),
				Y:      int(cy - h/2),
				Width:  int(w),
				Height: int(h),
			},
			Confidence: objectness * classScore,
			Label:      d.classes[classIdx],
		})
	}
	return detections, nil
}

// Crop extracts the box region from the image as an independent copy,
// clamped to the image bounds.
func Crop(img gocv.Mat, box geometry.RectInt) (gocv.Mat, error) {
	if img.Empty() {
		return gocv.Mat{}, errors.New("empty image")
	}

	x := clamp(box.X, 0, img.Cols()-1)
	y := clamp(box.Y, 0, img.Rows()-1)
	x2 := clamp(box.X+box.Width, x+1, img.Cols())
	y2 := clamp(box.Y+box.Height, y+1, img.Rows())

	region := img.Region(image.Rect(x, y, x2, y2))
	defer region.Close()
	return region.Clone(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
