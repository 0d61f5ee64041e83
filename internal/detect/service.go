package detect

import (
	"fmt"
	"log"
	"os"

	"gocv.io/x/gocv"
)

// DerivativeStore caches cropped and displayed renditions, keyed per view.
// Entries are append-only, so a cached crop short-circuits detection.
type DerivativeStore interface {
	HasCropped(buildingID, viewIndex int) bool
	CroppedPath(buildingID, viewIndex int) string
	SaveCropped(buildingID, viewIndex int, jpeg []byte) error
	SaveDisplayed(buildingID, viewIndex int, jpeg []byte) error
}

// Service runs the full per-viewpoint detection step: decode, detect, pick
// the best building box, crop, outline, and cache. It satisfies the session
// detector contract.
type Service struct {
	Detector *Detector
	Store    DerivativeStore
}

// Detect finds the building in one viewpoint image and returns its JPEG
// crop. A cached crop for the view is reused without re-detection.
func (s *Service) Detect(buildingID, viewIndex int, image []byte) ([]byte, float64, bool, error) {
	if s.Store != nil && s.Store.HasCropped(buildingID, viewIndex) {
		crop, err := os.ReadFile(s.Store.CroppedPath(buildingID, viewIndex))
		if err != nil {
			return nil, 0, false, fmt.Errorf("read cached crop %d/%d: %w", buildingID, viewIndex, err)
		}
		return crop, 0, true, nil
	}

	img, err := gocv.IMDecode(image, gocv.IMReadColor)
	if err != nil {
		return nil, 0, false, fmt.Errorf("decode viewpoint image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, 0, false, fmt.Errorf("viewpoint image %d/%d is empty", buildingID, viewIndex)
	}

	detections, err := s.Detector.Detect(img)
	if err != nil {
		return nil, 0, false, err
	}

	best, found := Best(detections, BuildingLabel)
	if !found {
		return nil, 0, false, nil
	}

	cropped, err := Crop(img, best.Box)
	if err != nil {
		return nil, 0, false, err
	}
	defer cropped.Close()

	cropJPEG, err := gocv.IMEncode(gocv.JPEGFileExt, cropped)
	if err != nil {
		return nil, 0, false, fmt.Errorf("encode crop: %w", err)
	}
	defer cropJPEG.Close()
	crop := append([]byte(nil), cropJPEG.GetBytes()...)

	if s.Store != nil {
		if err := s.cacheDerivatives(buildingID, viewIndex, img, best, crop); err != nil {
			log.Printf("cache derivatives for building %d view %d: %v", buildingID, viewIndex, err)
		}
	}

	return crop, best.Confidence, true, nil
}

// cacheDerivatives stores the crop and the outlined display rendition.
func (s *Service) cacheDerivatives(buildingID, viewIndex int, img gocv.Mat, best Detection, crop []byte) error {
	if err := s.Store.SaveCropped(buildingID, viewIndex, crop); err != nil {
		return err
	}

	displayed := img.Clone()
	defer displayed.Close()
	DrawDashedRect(&displayed, best.Box)

	displayJPEG, err := gocv.IMEncode(gocv.JPEGFileExt, displayed)
	if err != nil {
		return fmt.Errorf("encode displayed: %w", err)
	}
	defer displayJPEG.Close()

	return s.Store.SaveDisplayed(buildingID, viewIndex, append([]byte(nil), displayJPEG.GetBytes()...))
}
