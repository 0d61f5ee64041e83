package geosample

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"exposure-scout/internal/geopkg"
	"exposure-scout/internal/project"
	"exposure-scout/pkg/geometry"
)

// The subset draw is seeded with a fixed value so a project always samples
// the same buildings.
const sampleSeed = 10

// ErrSampleSize is returned when the requested subset exceeds the footprint
// population.
var ErrSampleSize = errors.New("sample size exceeds population")

// Layer names used in the persisted GeoPackage artifacts.
const (
	layerBoundary  = "Boundary"
	layerPolygon   = "polygon_layer"
	layerSquare    = "square_polygon"
	layerFootprint = "footprints"
	layerSubset    = "random_subset"
	layerCentroids = "centroids"
)

// Sampler derives and persists a project's building sample.
type Sampler struct {
	Project    *project.Project
	Boundaries BoundaryProvider
	Footprints FootprintProvider
}

// DeriveSample turns the geography spec into the ordered building sample,
// persisting each derivation stage to the project folder. Stages whose
// artifact file already exists are skipped, so an interrupted derivation
// resumes from the furthest completed stage.
func (s *Sampler) DeriveSample(ctx context.Context, spec Spec, sampleSize int) ([]Building, error) {
	switch sp := spec.(type) {
	case PolygonSpec:
		return s.derivePolygon(ctx, sp, sampleSize)
	case ListSpec:
		return s.deriveList(sp)
	case FolderSpec:
		return s.deriveFolder(sp)
	default:
		return nil, fmt.Errorf("unknown geography spec %T", spec)
	}
}

func (s *Sampler) derivePolygon(ctx context.Context, spec PolygonSpec, sampleSize int) ([]Building, error) {
	boundary, err := s.resolveBoundary(ctx, spec)
	if err != nil {
		return nil, err
	}

	footprints, err := s.resolveFootprints(ctx, boundary)
	if err != nil {
		return nil, err
	}

	subset, err := s.resolveSubset(footprints, sampleSize)
	if err != nil {
		return nil, err
	}

	return s.resolveCentroids(subset)
}

func (s *Sampler) resolveBoundary(ctx context.Context, spec PolygonSpec) (geometry.Ring, error) {
	path := s.Project.BoundaryPath()
	if fileExists(path) {
		layer := layerBoundary
		if len(spec.Corners) == 2 {
			layer = layerSquare
		} else if len(spec.Vertices) > 0 {
			layer = layerPolygon
		}
		rings, err := geopkg.ReadPolygonLayer(path, layer)
		if err != nil {
			return nil, fmt.Errorf("read boundary: %w", err)
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("boundary file %s has no features", path)
		}
		return rings[0], nil
	}

	var ring geometry.Ring
	var layer string
	switch {
	case len(spec.Corners) == 2:
		ring = geometry.SquareRing(spec.Corners[0], spec.Corners[1])
		layer = layerSquare
	case len(spec.Vertices) > 0:
		ring = spec.Vertices.Closed()
		layer = layerPolygon
	case spec.BoundaryName != "":
		var err error
		ring, err = s.Boundaries.Geocode(ctx, spec.BoundaryName)
		if err != nil {
			return nil, fmt.Errorf("resolve boundary %q: %w", spec.BoundaryName, err)
		}
		layer = layerBoundary
	default:
		return nil, fmt.Errorf("polygon spec has no boundary source")
	}

	if err := geopkg.WritePolygonLayer(path, layer, []geometry.Ring{ring}); err != nil {
		return nil, fmt.Errorf("persist boundary: %w", err)
	}
	log.Printf("Saved boundary (%d vertices) to %s", len(ring), path)
	return ring, nil
}

func (s *Sampler) resolveFootprints(ctx context.Context, boundary geometry.Ring) ([]geometry.Ring, error) {
	path := s.Project.FootprintsPath()
	if fileExists(path) {
		return geopkg.ReadPolygonLayer(path, layerFootprint)
	}

	log.Printf("Downloading building footprints...")
	footprints, err := s.Footprints.Footprints(ctx, boundary)
	if err != nil {
		return nil, fmt.Errorf("download footprints: %w", err)
	}
	log.Printf("Downloaded %d footprints", len(footprints))

	if err := geopkg.WritePolygonLayer(path, layerFootprint, footprints); err != nil {
		return nil, fmt.Errorf("persist footprints: %w", err)
	}
	return footprints, nil
}

func (s *Sampler) resolveSubset(footprints []geometry.Ring, sampleSize int) ([]geometry.Ring, error) {
	path := s.Project.SubsetPath()
	if fileExists(path) {
		return geopkg.ReadPolygonLayer(path, layerSubset)
	}

	if sampleSize > len(footprints) {
		return nil, fmt.Errorf("%w: requested %d of %d", ErrSampleSize, sampleSize, len(footprints))
	}

	idx := sampleIndices(len(footprints), sampleSize)
	subset := make([]geometry.Ring, len(idx))
	for i, j := range idx {
		subset[i] = footprints[j]
	}

	if err := geopkg.WritePolygonLayer(path, layerSubset, subset); err != nil {
		return nil, fmt.Errorf("persist subset: %w", err)
	}
	log.Printf("Sampled %d of %d footprints", sampleSize, len(footprints))
	return subset, nil
}

func (s *Sampler) resolveCentroids(subset []geometry.Ring) ([]Building, error) {
	path := s.Project.CentroidsPath()
	if !fileExists(path) {
		rows := make([]geopkg.PointRow, len(subset))
		for i, ring := range subset {
			c := ring.Centroid()
			rows[i] = geopkg.PointRow{ID: i + 1, Latitude: c.Y, Longitude: c.X}
		}
		if err := geopkg.WritePointLayer(path, layerCentroids, rows); err != nil {
			return nil, fmt.Errorf("persist centroids: %w", err)
		}
	}

	rows, err := geopkg.ReadPointLayer(path, layerCentroids)
	if err != nil {
		return nil, fmt.Errorf("read centroids: %w", err)
	}

	buildings := make([]Building, len(rows))
	for i, r := range rows {
		buildings[i] = Building{ID: r.ID, Latitude: r.Latitude, Longitude: r.Longitude}
	}
	return buildings, s.writeBuildingInfo(buildings)
}

func (s *Sampler) deriveList(spec ListSpec) ([]Building, error) {
	buildings := renumber(spec.Points)

	// The list is stored as points directly; no footprint stages apply.
	path := filepath.Join(s.Project.Dir, s.Project.Prefix()+".gpkg")
	if !fileExists(path) {
		rows := make([]geopkg.PointRow, len(buildings))
		for i, b := range buildings {
			rows[i] = geopkg.PointRow{ID: b.ID, Latitude: b.Latitude, Longitude: b.Longitude}
		}
		if err := geopkg.WritePointLayer(path, layerCentroids, rows); err != nil {
			return nil, fmt.Errorf("persist point list: %w", err)
		}
	}
	return buildings, s.writeBuildingInfo(buildings)
}

func (s *Sampler) deriveFolder(spec FolderSpec) ([]Building, error) {
	if len(spec.Buildings) == 0 {
		return nil, fmt.Errorf("local folder metadata table is empty")
	}
	buildings := renumber(spec.Buildings)
	return buildings, s.writeBuildingInfo(buildings)
}

// renumber assigns sequential 1-based IDs to entries that lack one.
func renumber(in []Building) []Building {
	out := make([]Building, len(in))
	copy(out, in)
	for i := range out {
		if out[i].ID == 0 {
			out[i].ID = i + 1
		}
	}
	return out
}

// sampleIndices draws a fixed-seed uniform sample of k indices from [0, n)
// without replacement, returned in ascending order.
func sampleIndices(n, k int) []int {
	rng := rand.New(rand.NewSource(sampleSeed))
	idx := rng.Perm(n)[:k]
	sort.Ints(idx)
	return idx
}

// writeBuildingInfo flattens the sample into the navigation driver CSV.
// An existing file is left untouched.
func (s *Sampler) writeBuildingInfo(buildings []Building) error {
	path := s.Project.BuildingInfoPath()
	if fileExists(path) {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "latitude", "longitude"}); err != nil {
		return err
	}
	for _, b := range buildings {
		rec := []string{
			strconv.Itoa(b.ID),
			strconv.FormatFloat(b.Latitude, 'f', -1, 64),
			strconv.FormatFloat(b.Longitude, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadBuildingInfo loads the navigation driver CSV back into memory.
func ReadBuildingInfo(path string) ([]Building, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	buildings := make([]Building, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 3 {
			return nil, fmt.Errorf("malformed row %v", rec)
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("bad building id %q: %w", rec[0], err)
		}
		lat, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q: %w", rec[1], err)
		}
		lon, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q: %w", rec[2], err)
		}
		buildings = append(buildings, Building{ID: id, Latitude: lat, Longitude: lon})
	}
	return buildings, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
