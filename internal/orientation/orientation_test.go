package orientation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposure-scout/pkg/geometry"
)

func newTestResolver(handler http.HandlerFunc) (*Resolver, *httptest.Server) {
	srv := httptest.NewServer(handler)
	r := NewResolver("test-key")
	r.Endpoint = srv.URL
	return r, srv
}

func TestRoadBearing(t *testing.T) {
	r, srv := newTestResolver(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "0,0", req.URL.Query().Get("points"))
		assert.Equal(t, "test-key", req.URL.Query().Get("key"))
		// Snapped point due east of the query.
		w.Write([]byte(`{"snappedPoints":[{"location":{"latitude":0,"longitude":1}}]}`))
	})
	defer srv.Close()

	bearing, err := r.RoadBearing(context.Background(), geometry.NewCoordinate(0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 90.0, bearing, 1e-9)
}

func TestResolveHeadings(t *testing.T) {
	r, srv := newTestResolver(func(w http.ResponseWriter, req *http.Request) {
		// Snapped point due south: bearing 180, headings {-30,0,+30}+180+180.
		w.Write([]byte(`{"snappedPoints":[{"location":{"latitude":-1,"longitude":0}}]}`))
	})
	defer srv.Close()

	bearing, headings, err := r.ResolveHeadings(context.Background(), geometry.NewCoordinate(0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 180.0, bearing, 1e-9)
	assert.InDelta(t, 330.0, headings[0], 1e-9)
	assert.InDelta(t, 0.0, headings[1], 1e-9)
	assert.InDelta(t, 30.0, headings[2], 1e-9)
}

func TestRoadNotFound(t *testing.T) {
	r, srv := newTestResolver(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	_, err := r.RoadBearing(context.Background(), geometry.NewCoordinate(89.9, 0))
	assert.ErrorIs(t, err, ErrRoadNotFound)
}

func TestServiceUnavailable(t *testing.T) {
	r, srv := newTestResolver(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := r.RoadBearing(context.Background(), geometry.NewCoordinate(0, 0))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
