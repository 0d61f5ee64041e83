package geosample

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposure-scout/internal/project"
	"exposure-scout/pkg/geometry"
)

type fakeBoundaries struct {
	calls int
	ring  geometry.Ring
}

func (f *fakeBoundaries) Geocode(ctx context.Context, name string) (geometry.Ring, error) {
	f.calls++
	return f.ring, nil
}

type fakeFootprints struct {
	calls int
	rings []geometry.Ring
}

func (f *fakeFootprints) Footprints(ctx context.Context, boundary geometry.Ring) ([]geometry.Ring, error) {
	f.calls++
	return f.rings, nil
}

func testFootprints(n int) []geometry.Ring {
	rings := make([]geometry.Ring, n)
	for i := 0; i < n; i++ {
		x := float64(i) * 0.01
		rings[i] = geometry.Ring{
			{X: x, Y: 0}, {X: x + 0.005, Y: 0}, {X: x + 0.005, Y: 0.005}, {X: x, Y: 0.005},
		}
	}
	return rings
}

func newTestSampler(t *testing.T, population int) (*Sampler, *fakeBoundaries, *fakeFootprints) {
	t.Helper()
	p := project.New(t.TempDir(), project.VariantPolygon)
	p.Country = "Spain"
	p.City = "Madrid"

	b := &fakeBoundaries{ring: geometry.SquareRing(geometry.Point2D{X: -1, Y: -1}, geometry.Point2D{X: 1, Y: 1})}
	f := &fakeFootprints{rings: testFootprints(population)}
	return &Sampler{Project: p, Boundaries: b, Footprints: f}, b, f
}

func TestDeriveSampleDeterministic(t *testing.T) {
	s1, _, _ := newTestSampler(t, 50)
	s2, _, _ := newTestSampler(t, 50)

	spec := PolygonSpec{BoundaryName: "Madrid, Spain"}
	got1, err := s1.DeriveSample(context.Background(), spec, 10)
	require.NoError(t, err)
	got2, err := s2.DeriveSample(context.Background(), spec, 10)
	require.NoError(t, err)

	require.Len(t, got1, 10)
	assert.Equal(t, got1, got2, "same spec, size, and seed must sample identically")
	for i, b := range got1 {
		assert.Equal(t, i+1, b.ID, "ids are sequential and 1-based")
	}
}

func TestDeriveSampleIdempotentShortCircuit(t *testing.T) {
	s, boundaries, footprints := newTestSampler(t, 30)
	spec := PolygonSpec{BoundaryName: "Madrid, Spain"}

	first, err := s.DeriveSample(context.Background(), spec, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, boundaries.calls)
	assert.Equal(t, 1, footprints.calls)

	csvBefore, err := os.ReadFile(s.Project.BuildingInfoPath())
	require.NoError(t, err)

	second, err := s.DeriveSample(context.Background(), spec, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, boundaries.calls, "boundary already persisted, no second call")
	assert.Equal(t, 1, footprints.calls, "footprints already persisted, no second call")
	assert.Equal(t, first, second)

	csvAfter, err := os.ReadFile(s.Project.BuildingInfoPath())
	require.NoError(t, err)
	assert.Equal(t, csvBefore, csvAfter, "driver table unchanged on re-run")
}

func TestDeriveSampleSizeError(t *testing.T) {
	s, _, _ := newTestSampler(t, 3)
	_, err := s.DeriveSample(context.Background(), PolygonSpec{BoundaryName: "x"}, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSampleSize)
	assert.NoFileExists(t, s.Project.SubsetPath(), "no partial subset written")
}

func TestDeriveSampleSquareCorners(t *testing.T) {
	s, boundaries, _ := newTestSampler(t, 20)
	spec := PolygonSpec{Corners: []geometry.Point2D{{X: -1, Y: -1}, {X: 1, Y: 1}}}

	got, err := s.DeriveSample(context.Background(), spec, 4)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 0, boundaries.calls, "literal corners need no geocoding")
	assert.FileExists(t, s.Project.BoundaryPath())
}

func TestDeriveListPassthrough(t *testing.T) {
	p := project.New(t.TempDir(), project.VariantSpecificList)
	p.CustomName = "survey"
	s := &Sampler{Project: p}

	points := []Building{
		{ID: 1, Latitude: 40.0, Longitude: -3.0},
		{ID: 2, Latitude: 41.0, Longitude: -4.0},
	}
	got, err := s.DeriveSample(context.Background(), ListSpec{Points: points}, 0)
	require.NoError(t, err)
	assert.Equal(t, points, got, "the list is the sample, unmodified")
	assert.FileExists(t, p.BuildingInfoPath())
}

func TestDeriveFolderUsesMetadata(t *testing.T) {
	p := project.New(t.TempDir(), project.VariantLocalFolder)
	p.CustomName = "field"
	s := &Sampler{Project: p}

	got, err := s.DeriveSample(context.Background(), FolderSpec{
		ImageDir:  t.TempDir(),
		Buildings: []Building{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}},
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestReadBuildingInfoRoundTrip(t *testing.T) {
	p := project.New(t.TempDir(), project.VariantSpecificList)
	p.CustomName = "rt"
	s := &Sampler{Project: p}

	points := []Building{{ID: 1, Latitude: 40.5, Longitude: -3.25}}
	_, err := s.DeriveSample(context.Background(), ListSpec{Points: points}, 0)
	require.NoError(t, err)

	got, err := ReadBuildingInfo(p.BuildingInfoPath())
	require.NoError(t, err)
	assert.Equal(t, points, got)
}
