// Package geosample derives the working set of buildings for a project from
// a geography specification and persists the intermediate GIS artifacts.
package geosample

import (
	"context"

	"exposure-scout/pkg/geometry"
)

// Building is one sampled building with its representative coordinate.
// IDs are 1-based and local to the sample.
type Building struct {
	ID        int
	Latitude  float64
	Longitude float64
}

// Coordinate returns the building's position.
func (b Building) Coordinate() geometry.Coordinate {
	return geometry.NewCoordinate(b.Latitude, b.Longitude)
}

// Spec describes where a project's buildings come from. Exactly one concrete
// spec type is chosen per project and never changes afterwards.
type Spec interface {
	isSpec()
}

// PolygonSpec samples buildings from footprints inside an area. The area is
// given by exactly one of: an administrative boundary name, two opposite
// square corners, or an explicit vertex ring.
type PolygonSpec struct {
	BoundaryName string
	Corners      []geometry.Point2D
	Vertices     geometry.Ring
}

func (PolygonSpec) isSpec() {}

// ListSpec uses an operator-supplied coordinate list verbatim as the sample.
type ListSpec struct {
	Points []Building
}

func (ListSpec) isSpec() {}

// FolderSpec uses a local image folder with a metadata table as the sample.
type FolderSpec struct {
	ImageDir  string
	Buildings []Building
}

func (FolderSpec) isSpec() {}

// BoundaryProvider resolves an administrative boundary name to a polygon.
type BoundaryProvider interface {
	Geocode(ctx context.Context, name string) (geometry.Ring, error)
}

// FootprintProvider downloads the building footprints intersecting an area.
type FootprintProvider interface {
	Footprints(ctx context.Context, boundary geometry.Ring) ([]geometry.Ring, error)
}
