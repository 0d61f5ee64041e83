// Package streetview acquires street-level imagery, either from the remote
// panorama service or from a local image folder with persisted derivative
// caches.
package streetview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"exposure-scout/pkg/geometry"
)

// Camera parameters for every viewpoint capture.
const (
	FieldOfView = 120
	Pitch       = 5
	ImageWidth  = 640
	ImageHeight = 480
	ImageScale  = 2
)

const (
	defaultImageEndpoint    = "https://maps.googleapis.com/maps/api/streetview"
	defaultMetadataEndpoint = "https://maps.googleapis.com/maps/api/streetview/metadata"
)

// ErrUnavailable is returned when no panorama exists at a coordinate.
var ErrUnavailable = errors.New("street view not available")

// Client fetches panorama imagery from the remote service.
type Client struct {
	ImageEndpoint    string
	MetadataEndpoint string
	APIKey           string
	HTTPClient       *http.Client
}

// NewClient creates a panorama client using the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		ImageEndpoint:    defaultImageEndpoint,
		MetadataEndpoint: defaultMetadataEndpoint,
		APIKey:           apiKey,
		HTTPClient:       &http.Client{Timeout: 30 * time.Second},
	}
}

func formatCoord(c geometry.Coordinate) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Available reports whether a panorama exists at the coordinate. The
// metadata endpoint is free to call, so the check always precedes a fetch.
func (c *Client) Available(ctx context.Context, coord geometry.Coordinate) (bool, error) {
	q := url.Values{}
	q.Set("location", formatCoord(coord))
	q.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MetadataEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("street view metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("street view metadata: status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("street view metadata: %w", err)
	}
	return body.Status == "OK", nil
}

// ImageURL builds the fetch URL for a viewpoint capture.
func (c *Client) ImageURL(coord geometry.Coordinate, heading float64) string {
	q := url.Values{}
	q.Set("size", fmt.Sprintf("%dx%d", ImageWidth, ImageHeight))
	q.Set("scale", strconv.Itoa(ImageScale))
	q.Set("location", formatCoord(coord))
	q.Set("fov", strconv.Itoa(FieldOfView))
	q.Set("heading", strconv.FormatFloat(heading, 'f', -1, 64))
	q.Set("pitch", strconv.Itoa(Pitch))
	q.Set("key", c.APIKey)
	return c.ImageEndpoint + "?" + q.Encode()
}

// Fetch retrieves one viewpoint image. The bytes are kept in memory only for
// the current navigation step; remote captures are never cached to disk.
func (c *Client) Fetch(ctx context.Context, coord geometry.Coordinate, heading float64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(coord, heading), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("street view fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("street view fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// MapsDeeplink builds a pano viewer URL for a coordinate and heading. Used
// as the ledger image reference when no direct image URL applies.
func MapsDeeplink(coord geometry.Coordinate, heading float64) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=%s,%s&heading=%s&pitch=%d&fov=%d",
		strconv.FormatFloat(coord.Latitude, 'f', -1, 64),
		strconv.FormatFloat(coord.Longitude, 'f', -1, 64),
		strconv.FormatFloat(heading, 'f', -1, 64),
		Pitch, FieldOfView,
	)
}
