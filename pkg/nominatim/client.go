// Package nominatim geocodes place names via the OpenStreetMap Nominatim
// search API. Nominatim's terms of service require at most one request per
// second, so the client rate-limits itself.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/newsatlas/geolocate/internal/model"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "newsatlas-geolocate"
	defaultLimit     = 20
)

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header required by the usage policy.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLimit overrides the maximum number of records per query.
func WithLimit(n int) Option {
	return func(c *Client) {
		c.limit = n
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit overrides the default 1 req/s limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client queries the Nominatim search API.
type Client struct {
	baseURL   string
	userAgent string
	limit     int
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Nominatim API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		limit:     defaultLimit,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "nominatim"
}

type record struct {
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	BoundingBox []string          `json:"boundingbox"` // minlat, maxlat, minlon, maxlon
	Address     map[string]string `json:"address"`
}

// Geocode resolves a place name to candidate geocodings. Records with
// unparsable coordinates are skipped rather than failing the query.
func (c *Client) Geocode(ctx context.Context, placeName string) ([]model.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", placeName)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var records []record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, eris.Wrap(err, "nominatim: unmarshal response")
	}

	candidates := make([]model.Candidate, 0, len(records))
	for _, r := range records {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		cand := model.Candidate{
			Address:    r.DisplayName,
			Lat:        lat,
			Lon:        lon,
			Components: r.Address,
			Source:     c.Name(),
		}
		if bbox, ok := parseBoundingBox(r.BoundingBox); ok {
			cand.BoundingBox = bbox
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// parseBoundingBox converts Nominatim's [minlat, maxlat, minlon, maxlon]
// string quadruple into (minlon, minlat, maxlon, maxlat) order.
func parseBoundingBox(raw []string) (*model.BoundingBox, bool) {
	if len(raw) != 4 {
		return nil, false
	}
	vals := make([]float64, 4)
	for i, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = v
	}
	return &model.BoundingBox{
		MinLon: vals[2],
		MinLat: vals[0],
		MaxLon: vals[3],
		MaxLat: vals[1],
	}, true
}
