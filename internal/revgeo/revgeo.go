// Package revgeo resolves a coordinate to its city and country through a
// Nominatim-style reverse geocoding endpoint.
package revgeo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultEndpoint = "https://nominatim.openstreetmap.org/reverse"

// Place is the resolved administrative location of a coordinate.
type Place struct {
	City    string
	Country string
}

// Client queries a reverse geocoding endpoint.
type Client struct {
	Endpoint   string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a reverse geocoding client with a request timeout.
func NewClient() *Client {
	return &Client{
		Endpoint:   defaultEndpoint,
		UserAgent:  "exposure-scout",
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type nominatimResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves the coordinate. The city falls back through town and
// village when the address has no city field, then to "Unknown".
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Place{}, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("reverse geocode: %w", err)
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}
	if city == "" {
		city = "Unknown"
	}
	return Place{City: city, Country: body.Address.Country}, nil
}
