package geosample

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"exposure-scout/pkg/geometry"
)

// NominatimBoundaries resolves administrative boundary names through a
// Nominatim search endpoint with polygon output.
type NominatimBoundaries struct {
	Endpoint   string
	UserAgent  string
	HTTPClient *http.Client
}

// NewNominatimBoundaries creates the default boundary provider.
func NewNominatimBoundaries() *NominatimBoundaries {
	return &NominatimBoundaries{
		Endpoint:   "https://nominatim.openstreetmap.org/search",
		UserAgent:  "exposure-scout",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type nominatimSearchResult struct {
	GeoJSON struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geojson"`
}

// Geocode resolves a boundary name to its outer polygon ring.
func (n *NominatimBoundaries) Geocode(ctx context.Context, name string) (geometry.Ring, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("polygon_geojson", "1")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.UserAgent)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boundary search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("boundary search: status %d", resp.StatusCode)
	}

	var results []nominatimSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("boundary search: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no boundary found for %q", name)
	}

	return ringFromGeoJSON(results[0].GeoJSON.Type, results[0].GeoJSON.Coordinates)
}

// ringFromGeoJSON extracts the outer ring of a GeoJSON Polygon or the first
// polygon of a MultiPolygon.
func ringFromGeoJSON(geomType string, coords json.RawMessage) (geometry.Ring, error) {
	switch geomType {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(coords, &poly); err != nil {
			return nil, fmt.Errorf("parse polygon: %w", err)
		}
		if len(poly) == 0 {
			return nil, fmt.Errorf("empty polygon")
		}
		return ringFromPositions(poly[0]), nil
	case "MultiPolygon":
		var multi [][][][2]float64
		if err := json.Unmarshal(coords, &multi); err != nil {
			return nil, fmt.Errorf("parse multipolygon: %w", err)
		}
		if len(multi) == 0 || len(multi[0]) == 0 {
			return nil, fmt.Errorf("empty multipolygon")
		}
		return ringFromPositions(multi[0][0]), nil
	default:
		return nil, fmt.Errorf("boundary geometry is %s, want polygon", geomType)
	}
}

func ringFromPositions(positions [][2]float64) geometry.Ring {
	ring := make(geometry.Ring, len(positions))
	for i, pos := range positions {
		ring[i] = geometry.Point2D{X: pos[0], Y: pos[1]}
	}
	return ring
}

// OverpassFootprints downloads building footprints from an Overpass API
// endpoint.
type OverpassFootprints struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewOverpassFootprints creates the default footprint provider.
func NewOverpassFootprints() *OverpassFootprints {
	return &OverpassFootprints{
		Endpoint:   "https://overpass-api.de/api/interpreter",
		HTTPClient: &http.Client{Timeout: 180 * time.Second},
	}
}

type overpassResponse struct {
	Elements []struct {
		Type     string `json:"type"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// Footprints fetches all building ways inside the boundary ring.
func (o *OverpassFootprints) Footprints(ctx context.Context, boundary geometry.Ring) ([]geometry.Ring, error) {
	query := fmt.Sprintf(`[out:json][timeout:120];way["building"](poly:"%s");out geom;`,
		polyFilter(boundary))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint,
		strings.NewReader("data="+url.QueryEscape(query)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("footprint download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("footprint download: status %d", resp.StatusCode)
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("footprint download: %w", err)
	}

	var rings []geometry.Ring
	for _, el := range body.Elements {
		if el.Type != "way" || len(el.Geometry) < 3 {
			continue
		}
		ring := make(geometry.Ring, len(el.Geometry))
		for i, g := range el.Geometry {
			ring[i] = geometry.Point2D{X: g.Lon, Y: g.Lat}
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

// polyFilter renders a ring as the Overpass poly filter string of
// space-separated "lat lon" pairs.
func polyFilter(ring geometry.Ring) string {
	var sb strings.Builder
	for i, p := range ring {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(p.Y, 'f', 6, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatFloat(p.X, 'f', 6, 64))
	}
	return sb.String()
}
