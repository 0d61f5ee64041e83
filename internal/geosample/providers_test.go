package geosample

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposure-scout/pkg/geometry"
)

func TestNominatimGeocodePolygon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("polygon_geojson"))
		assert.Equal(t, "Old Town", r.URL.Query().Get("q"))
		w.Write([]byte(`[{"geojson":{"type":"Polygon","coordinates":[[[-3.0,40.0],[-2.9,40.0],[-2.9,40.1],[-3.0,40.0]]]}}]`))
	}))
	defer srv.Close()

	provider := NewNominatimBoundaries()
	provider.Endpoint = srv.URL

	ring, err := provider.Geocode(context.Background(), "Old Town")
	require.NoError(t, err)
	require.Len(t, ring, 4)
	assert.Equal(t, geometry.Point2D{X: -3.0, Y: 40.0}, ring[0])
}

func TestNominatimGeocodeMultiPolygonTakesFirstOuterRing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"geojson":{"type":"MultiPolygon","coordinates":[[[[1.0,2.0],[3.0,2.0],[3.0,4.0],[1.0,2.0]]]]}}]`))
	}))
	defer srv.Close()

	provider := NewNominatimBoundaries()
	provider.Endpoint = srv.URL

	ring, err := provider.Geocode(context.Background(), "anywhere")
	require.NoError(t, err)
	require.Len(t, ring, 4)
	assert.Equal(t, geometry.Point2D{X: 1.0, Y: 2.0}, ring[0])
}

func TestNominatimGeocodeNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	provider := NewNominatimBoundaries()
	provider.Endpoint = srv.URL

	_, err := provider.Geocode(context.Background(), "nowhere")
	assert.Error(t, err)
}

func TestOverpassFootprints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("data"), `way["building"]`)
		w.Write([]byte(`{"elements":[
			{"type":"way","geometry":[{"lat":40.0,"lon":-3.0},{"lat":40.0,"lon":-2.9},{"lat":40.1,"lon":-2.9},{"lat":40.0,"lon":-3.0}]},
			{"type":"node","geometry":[]},
			{"type":"way","geometry":[{"lat":1,"lon":1},{"lat":2,"lon":2}]}
		]}`))
	}))
	defer srv.Close()

	provider := NewOverpassFootprints()
	provider.Endpoint = srv.URL

	rings, err := provider.Footprints(context.Background(), geometry.SquareRing(
		geometry.Point2D{X: -3.0, Y: 40.0}, geometry.Point2D{X: -2.9, Y: 40.1}))
	require.NoError(t, err)

	// The node element and the two-vertex way are dropped.
	require.Len(t, rings, 1)
	assert.Equal(t, geometry.Point2D{X: -3.0, Y: 40.0}, rings[0][0])
}

func TestPolyFilterFormat(t *testing.T) {
	ring := geometry.Ring{{X: -3.5, Y: 40.25}, {X: -3.4, Y: 40.25}}
	assert.Equal(t, "40.250000 -3.500000 40.250000 -3.400000", polyFilter(ring))
}
