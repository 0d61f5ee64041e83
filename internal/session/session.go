// Package session sequences the inspection walk over the building sample:
// it owns the navigation cursor, runs the per-building pipeline, and commits
// in-progress edits to the ledger.
package session

import (
	"context"
	"errors"

	"exposure-scout/internal/classify"
	"exposure-scout/internal/geosample"
	"exposure-scout/pkg/geometry"
)

// State is the navigation state machine position.
type State int

const (
	StateIdle State = iota
	StateAwaitingSample
	StateAtBuilding
	StateExhausted
)

// EventType identifies session events.
type EventType int

const (
	EventSampleReady EventType = iota
	EventBuildingShown
	EventExhausted
	EventSaved
	EventViewpointDegraded
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

var (
	// ErrNotConfigured is returned when the project preconditions (folder,
	// country, city) are not yet satisfied.
	ErrNotConfigured = errors.New("project folder, country, and city must be set")

	// ErrNoFurther is the non-fatal notice raised when "next" is pressed on
	// the last building.
	ErrNoFurther = errors.New("no further inspections are available")

	// ErrNotFound is returned when a searched building ID has no ledger rows.
	ErrNotFound = errors.New("building id not found")

	// ErrNoSample is returned for navigation before the sample materialized.
	ErrNoSample = errors.New("building sample not derived yet")
)

// Orienter resolves the road bearing and camera headings for a coordinate.
type Orienter interface {
	ResolveHeadings(ctx context.Context, coord geometry.Coordinate) (float64, [3]float64, error)
}

// Acquirer obtains viewpoint imagery for a building. Reference builds the
// ledger image reference for one viewpoint.
type Acquirer interface {
	Available(ctx context.Context, b geosample.Building) (bool, error)
	Fetch(ctx context.Context, b geosample.Building, viewIndex int, heading float64) ([]byte, error)
	Reference(b geosample.Building, viewIndex int, heading float64, available bool) string
}

// Detector finds the best building crop in a viewpoint image. A miss is
// reported with found=false, not an error.
type Detector interface {
	Detect(buildingID, viewIndex int, image []byte) (crop []byte, confidence float64, found bool, err error)
}

// Classifier predicts one attribute class index from a cropped image.
type Classifier interface {
	Classify(crop []byte, kind classify.Kind) (int, error)
}

// Viewpoint is the in-memory pipeline result for one of the three views of
// the displayed building.
type Viewpoint struct {
	Index      int
	Heading    float64
	Image      []byte
	Crop       []byte
	Confidence float64
	Available  bool
	Detected   bool
}

// degradedNotice reports a single viewpoint pipeline failure.
type degradedNotice struct {
	BuildingID int
	ViewIndex  int
	Err        error
}
