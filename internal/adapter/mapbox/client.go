// Package mapbox resolves epicenter coordinates to a "nearest cities" style
// description line using the Mapbox reverse geocoding API, e.g.
// "12.3 km NNW of Fernley, NV". It implements the converter's NearestPlacer
// contract.
package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quakecat/css2quakeml/internal/observability"
)

// ErrNoPlace means the API returned no settlement near the coordinates.
var ErrNoPlace = errors.New("no place found")

// Client queries the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox reverse geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// NearestPlace reverse geocodes the coordinates to the nearest settlement
// and formats the distance and compass direction from that settlement to
// the epicenter.
func (c *Client) NearestPlace(ctx context.Context, lon, lat float64) (string, error) {
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality"},
	}
	fullURL := fmt.Sprintf("%s/%s.json?%s", c.baseURL, coord, params.Encode())

	start := time.Now()
	feat, err := c.lookup(ctx, fullURL)
	c.metrics.PlaceAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.PlaceRequests.WithLabelValues("error").Inc()
		return "", err
	}
	if feat == nil || len(feat.Center) != 2 {
		c.metrics.PlaceRequests.WithLabelValues("empty").Inc()
		return "", ErrNoPlace
	}
	c.metrics.PlaceRequests.WithLabelValues("success").Inc()

	distKm := haversineKm(feat.Center[1], feat.Center[0], lat, lon)
	needle := compassPoint(initialBearing(feat.Center[1], feat.Center[0], lat, lon))

	place := feat.Text
	if region := feat.regionCode(); region != "" {
		place = place + ", " + region
	}
	return fmt.Sprintf("%.1f km %s of %s", distKm, needle, place), nil
}

func (c *Client) lookup(ctx context.Context, fullURL string) (*feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(mapboxResp.Features) == 0 {
		return nil, nil
	}
	return &mapboxResp.Features[0], nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center  []float64        `json:"center"` // [lon, lat]
	Text    string           `json:"text"`
	Context []featureContext `json:"context"`
}

type featureContext struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code"`
}

// regionCode extracts the state/province abbreviation from the feature's
// context chain, e.g. short code "US-NV" yields "NV".
func (f *feature) regionCode() string {
	for _, c := range f.Context {
		if !strings.HasPrefix(c.ID, "region") || c.ShortCode == "" {
			continue
		}
		if idx := strings.Index(c.ShortCode, "-"); idx >= 0 {
			return c.ShortCode[idx+1:]
		}
		return c.ShortCode
	}
	return ""
}
