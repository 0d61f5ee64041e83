package classify

import (
	"fmt"

	"exposure-scout/internal/imageio"
)

// CropClassifier adapts the network classifier to the session contract by
// decoding JPEG crop bytes before inference.
type CropClassifier struct {
	Nets *Classifier
}

// Classify decodes the crop and predicts the class index for one attribute.
func (c CropClassifier) Classify(crop []byte, kind Kind) (int, error) {
	img, err := imageio.Decode(crop)
	if err != nil {
		return 0, fmt.Errorf("decode crop for %s: %w", kind, err)
	}
	return c.Nets.Classify(img, kind)
}
