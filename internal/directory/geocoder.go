// Package directory holds thin clients for the external HTTP services
// workdesk consumes: reverse geocoding for attendance records and outbound
// mail delivery.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// GeocodeClient resolves coordinates against a Nominatim-style reverse
// geocoding endpoint. Callers treat failures as best effort.
type GeocodeClient struct {
	baseURL string
	client  *http.Client
}

// NewGeocodeClient constructs a GeocodeClient for the given base URL.
func NewGeocodeClient(baseURL string, client *http.Client) *GeocodeClient {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &GeocodeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type reverseGeocodeResponse struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode resolves the coordinates to a display address.
func (c *GeocodeClient) ReverseGeocode(ctx context.Context, latitude, longitude float64) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("directory: geocode client not configured")
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("directory: create geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "workdesk/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory: reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("directory: reverse geocode: status %d", resp.StatusCode)
	}

	var body reverseGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("directory: decode geocode response: %w", err)
	}
	return strings.TrimSpace(body.DisplayName), nil
}
