// Package project provides per-project configuration and artifact path handling.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Variant selects how the building sample for a project is sourced.
// It is chosen once when the project is created and never changes.
type Variant string

const (
	VariantPolygon      Variant = "polygon"
	VariantSpecificList Variant = "specific_list"
	VariantLocalFolder  Variant = "local_folder"
)

// MaxImagesPerBuilding bounds the per-building image count for local folders.
const MaxImagesPerBuilding = 3

// Project represents a project file (project.json) stored in the project folder.
type Project struct {
	Version  int       `json:"version"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Variant Variant `json:"variant"`
	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`

	// CustomName overrides the {city}_{country} artifact prefix for the
	// specific-list variant.
	CustomName string `json:"custom_name,omitempty"`

	SampleSize int  `json:"sample_size,omitempty"`
	AIAssist   bool `json:"ai_assist"`

	// Local-folder variant settings
	ImageDir          string `json:"image_dir,omitempty"`
	ImagesPerBuilding int    `json:"images_per_building,omitempty"`

	// Dir is the project folder; set on load, not persisted.
	Dir string `json:"-"`
}

// New creates a new project in the given folder.
func New(dir string, variant Variant) *Project {
	now := time.Now()
	return &Project{
		Version:           1,
		Created:           now,
		Modified:          now,
		Variant:           variant,
		ImagesPerBuilding: 1,
		Dir:               dir,
	}
}

// Load loads a project from its folder.
func Load(dir string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(dir, "project.json"))
	if err != nil {
		return nil, err
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Dir = dir
	return &p, nil
}

// Save writes the project file back to its folder.
func (p *Project) Save() error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.Dir, "project.json"), data, 0644)
}

// Ready reports whether the operator has completed the minimum setup that
// every core operation requires.
func (p *Project) Ready() bool {
	if p.Dir == "" {
		return false
	}
	if p.CustomName != "" {
		return true
	}
	return p.Country != "" && p.City != ""
}

// SetImagesPerBuilding validates and stores the local-folder image count.
func (p *Project) SetImagesPerBuilding(n int) error {
	if n < 1 || n > MaxImagesPerBuilding {
		return fmt.Errorf("images per building must be 1-%d, got %d", MaxImagesPerBuilding, n)
	}
	p.ImagesPerBuilding = n
	return nil
}

// Prefix returns the artifact filename prefix: the custom name when set,
// otherwise {city}_{country} with spaces flattened.
func (p *Project) Prefix() string {
	if p.CustomName != "" {
		return sanitize(p.CustomName)
	}
	return sanitize(p.City) + "_" + sanitize(p.Country)
}

func sanitize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// BoundaryPath returns the boundary GeoPackage path.
func (p *Project) BoundaryPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_boundary.gpkg")
}

// FootprintsPath returns the full building population GeoPackage path.
func (p *Project) FootprintsPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_buildings_footprint.gpkg")
}

// SubsetPath returns the sampled footprint GeoPackage path.
func (p *Project) SubsetPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_subset_footprints.gpkg")
}

// CentroidsPath returns the subset centroid GeoPackage path.
func (p *Project) CentroidsPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_subset_centroids.gpkg")
}

// BuildingInfoPath returns the flattened navigation driver CSV path.
func (p *Project) BuildingInfoPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_building_info.csv")
}

// LedgerPath returns the per-viewpoint inspection CSV path.
func (p *Project) LedgerPath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_AI_inspections.csv")
}

// ExposurePath returns the per-building summary CSV path.
func (p *Project) ExposurePath() string {
	return filepath.Join(p.Dir, p.Prefix()+"_EXPO_inspections.csv")
}

// CroppedDir returns the local-folder cropped derivative cache directory.
func (p *Project) CroppedDir() string {
	return filepath.Join(p.ImageDir, "Cropped_images")
}

// DisplayedDir returns the local-folder annotated display cache directory.
func (p *Project) DisplayedDir() string {
	return filepath.Join(p.ImageDir, "displayed_images")
}
