package streetview

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore serves building images from an operator-supplied folder and
// persists cropped and annotated derivatives next to it. Each building owns
// PerBuilding consecutive image rows, so every file is keyed by the per-view
// image id, not the building id. Derivatives are written once per image id
// and never overwritten.
type LocalStore struct {
	Dir         string
	PerBuilding int
}

// NewLocalStore creates a store over an image folder holding perBuilding
// images per building (1 to 3).
func NewLocalStore(dir string, perBuilding int) *LocalStore {
	if perBuilding < 1 {
		perBuilding = 1
	}
	if perBuilding > 3 {
		perBuilding = 3
	}
	return &LocalStore{Dir: dir, PerBuilding: perBuilding}
}

// ImageID maps a building view to its image row id. Views past the
// per-building image count reuse the building's last image.
func (s *LocalStore) ImageID(buildingID, viewIndex int) int {
	v := viewIndex
	if v < 0 {
		v = 0
	}
	if v >= s.PerBuilding {
		v = s.PerBuilding - 1
	}
	return (buildingID-1)*s.PerBuilding + v + 1
}

// SourcePath returns the path of one view's source image.
func (s *LocalStore) SourcePath(buildingID, viewIndex int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%d.jpg", s.ImageID(buildingID, viewIndex)))
}

// Load reads one view's source image bytes.
func (s *LocalStore) Load(buildingID, viewIndex int) ([]byte, error) {
	data, err := os.ReadFile(s.SourcePath(buildingID, viewIndex))
	if err != nil {
		return nil, fmt.Errorf("local image %d: %w", s.ImageID(buildingID, viewIndex), err)
	}
	return data, nil
}

// CroppedPath returns the cache path of one view's cropped derivative.
func (s *LocalStore) CroppedPath(buildingID, viewIndex int) string {
	return filepath.Join(s.Dir, "Cropped_images",
		fmt.Sprintf("%d_cropped.jpg", s.ImageID(buildingID, viewIndex)))
}

// DisplayedPath returns the cache path of one view's annotated display copy.
func (s *LocalStore) DisplayedPath(buildingID, viewIndex int) string {
	return filepath.Join(s.Dir, "displayed_images",
		fmt.Sprintf("%d_displayed.jpg", s.ImageID(buildingID, viewIndex)))
}

// HasCropped reports whether the cropped derivative is already cached.
func (s *LocalStore) HasCropped(buildingID, viewIndex int) bool {
	_, err := os.Stat(s.CroppedPath(buildingID, viewIndex))
	return err == nil
}

// HasDisplayed reports whether the display derivative is already cached.
func (s *LocalStore) HasDisplayed(buildingID, viewIndex int) bool {
	_, err := os.Stat(s.DisplayedPath(buildingID, viewIndex))
	return err == nil
}

// SaveCropped caches the cropped derivative. Existing entries are kept.
func (s *LocalStore) SaveCropped(buildingID, viewIndex int, jpeg []byte) error {
	if s.HasCropped(buildingID, viewIndex) {
		return nil
	}
	return writeFile(s.CroppedPath(buildingID, viewIndex), jpeg)
}

// SaveDisplayed caches the display derivative. Existing entries are kept.
func (s *LocalStore) SaveDisplayed(buildingID, viewIndex int, jpeg []byte) error {
	if s.HasDisplayed(buildingID, viewIndex) {
		return nil
	}
	return writeFile(s.DisplayedPath(buildingID, viewIndex), jpeg)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
