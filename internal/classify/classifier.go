package classify

import (
	"errors"
	"fmt"
	goimage "image"
	"path/filepath"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// Classifier model input size (width x height).
const (
	inputWidth  = 320
	inputHeight = 256
)

// Classifier holds the six attribute networks. Each one is a pure function
// of a cropped building image.
type Classifier struct {
	nets map[Kind]gocv.Net
}

// NewClassifier loads every attribute network from the weights directory.
// Files are named densenet201_<attribute>.onnx.
func NewClassifier(weightsDir string) (*Classifier, error) {
	c := &Classifier{nets: make(map[Kind]gocv.Net, len(Kinds))}
	for _, kind := range Kinds {
		path := filepath.Join(weightsDir, fmt.Sprintf("densenet201_%s.onnx", kind))
		net := gocv.ReadNetFromONNX(path)
		if net.Empty() {
			c.Close()
			return nil, fmt.Errorf("load classifier model %s", path)
		}
		c.nets[kind] = net
	}
	return c, nil
}

// Close releases all networks.
func (c *Classifier) Close() {
	for _, net := range c.nets {
		net.Close()
	}
}

// Classify runs one attribute model over a cropped building image and
// returns the winning class index.
func (c *Classifier) Classify(img goimage.Image, kind Kind) (int, error) {
	net, ok := c.nets[kind]
	if !ok {
		return 0, fmt.Errorf("no model loaded for %s", kind)
	}
	if img == nil {
		return 0, errors.New("nil image")
	}

	mat, err := gocv.ImageToMatRGB(resize(img))
	if err != nil {
		return 0, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, goimage.Pt(inputWidth, inputHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	net.SetInput(blob, "")
	output := net.Forward("")
	defer output.Close()

	return argmax(output, kind.Classes())
}

// resize scales the crop to the model input size.
func resize(img goimage.Image) *goimage.RGBA {
	dst := goimage.NewRGBA(goimage.Rect(0, 0, inputWidth, inputHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func argmax(output gocv.Mat, classes int) (int, error) {
	if output.Total() < classes {
		return 0, fmt.Errorf("model produced %d outputs, want %d", output.Total(), classes)
	}

	best := 0
	bestScore := output.GetFloatAt(0, 0)
	for i := 1; i < classes; i++ {
		score := output.GetFloatAt(0, i)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best, nil
}
