package project

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefix(t *testing.T) {
	p := New(t.TempDir(), VariantPolygon)
	p.Country = "Spain"
	p.City = "Madrid"
	assert.Equal(t, "Madrid_Spain", p.Prefix())

	p.City = "San Sebastian"
	assert.Equal(t, "San_Sebastian_Spain", p.Prefix())

	p.CustomName = "campus survey"
	assert.Equal(t, "campus_survey", p.Prefix())
}

func TestReadyPreconditions(t *testing.T) {
	p := New(t.TempDir(), VariantPolygon)
	assert.False(t, p.Ready(), "country and city unset")

	p.Country = "Spain"
	assert.False(t, p.Ready())

	p.City = "Madrid"
	assert.True(t, p.Ready())

	q := New(t.TempDir(), VariantSpecificList)
	q.CustomName = "survey"
	assert.True(t, q.Ready(), "custom name substitutes for city/country")
}

func TestArtifactPaths(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, VariantPolygon)
	p.Country = "Spain"
	p.City = "Madrid"

	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_boundary.gpkg"), p.BoundaryPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_buildings_footprint.gpkg"), p.FootprintsPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_subset_footprints.gpkg"), p.SubsetPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_subset_centroids.gpkg"), p.CentroidsPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_building_info.csv"), p.BuildingInfoPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_AI_inspections.csv"), p.LedgerPath())
	assert.Equal(t, filepath.Join(dir, "Madrid_Spain_EXPO_inspections.csv"), p.ExposurePath())
}

func TestImagesPerBuildingValidation(t *testing.T) {
	p := New(t.TempDir(), VariantLocalFolder)

	require.NoError(t, p.SetImagesPerBuilding(2))
	assert.Equal(t, 2, p.ImagesPerBuilding)

	assert.Error(t, p.SetImagesPerBuilding(0))
	assert.Error(t, p.SetImagesPerBuilding(4))
	assert.Equal(t, 2, p.ImagesPerBuilding, "rejected values leave the setting unchanged")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := New(dir, VariantLocalFolder)
	p.Country = "Chile"
	p.City = "Santiago"
	p.ImageDir = "/data/images"
	p.AIAssist = true
	require.NoError(t, p.SetImagesPerBuilding(3))
	require.NoError(t, p.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, VariantLocalFolder, loaded.Variant)
	assert.Equal(t, "Chile", loaded.Country)
	assert.Equal(t, "Santiago", loaded.City)
	assert.Equal(t, "/data/images", loaded.ImageDir)
	assert.Equal(t, 3, loaded.ImagesPerBuilding)
	assert.True(t, loaded.AIAssist)
	assert.Equal(t, dir, loaded.Dir)
}
