// Package orientation resolves the road bearing at a coordinate and derives
// the three camera headings for a building's viewpoints.
package orientation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"exposure-scout/pkg/geometry"
)

const defaultEndpoint = "https://roads.googleapis.com/v1/nearestRoads"

// ErrRoadNotFound is returned when the road service has no road near the
// queried coordinate.
var ErrRoadNotFound = errors.New("no road near coordinate")

// ErrServiceUnavailable is returned for non-200 road service responses.
var ErrServiceUnavailable = errors.New("road service unavailable")

// Resolver snaps coordinates to the nearest road and computes headings.
type Resolver struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// NewResolver creates a Resolver using the given API key.
func NewResolver(apiKey string) *Resolver {
	return &Resolver{
		Endpoint:   defaultEndpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type nearestRoadsResponse struct {
	SnappedPoints []struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"snappedPoints"`
}

// RoadBearing returns the azimuth from the coordinate to its nearest snapped
// road point, in degrees [0, 360).
func (r *Resolver) RoadBearing(ctx context.Context, coord geometry.Coordinate) (float64, error) {
	q := url.Values{}
	q.Set("points", strconv.FormatFloat(coord.Latitude, 'f', -1, 64)+","+
		strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	q.Set("key", r.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("nearest road: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var body nearestRoadsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("nearest road: %w", err)
	}
	if len(body.SnappedPoints) == 0 {
		return 0, ErrRoadNotFound
	}

	snapped := geometry.NewCoordinate(
		body.SnappedPoints[0].Location.Latitude,
		body.SnappedPoints[0].Location.Longitude,
	)
	return geometry.Azimuth(coord, snapped), nil
}

// ResolveHeadings returns the road bearing and the three camera headings for
// the coordinate.
func (r *Resolver) ResolveHeadings(ctx context.Context, coord geometry.Coordinate) (float64, [3]float64, error) {
	bearing, err := r.RoadBearing(ctx, coord)
	if err != nil {
		return 0, [3]float64{}, err
	}
	return bearing, geometry.Headings(bearing), nil
}
