// Package opencage geocodes place names via the OpenCage forward geocoding API.
package opencage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/model"
)

const (
	defaultBaseURL = "https://api.opencagedata.com/geocode/v1/json"
	defaultLimit   = 10
)

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
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

// Client queries the OpenCage geocoding API.
type Client struct {
	apiKey  string
	baseURL string
	limit   int
	http    *http.Client
}

// NewClient creates an OpenCage API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		limit:   defaultLimit,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "opencage"
}

type searchResponse struct {
	Results []record `json:"results"`
}

type record struct {
	Formatted string `json:"formatted"`
	Geometry  struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"geometry"`
	Bounds *struct {
		Northeast struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"northeast"`
		Southwest struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"southwest"`
	} `json:"bounds"`
	Components map[string]any `json:"components"`
}

// Geocode resolves a place name to candidate geocodings. Records missing
// coordinates are skipped rather than failing the query.
func (c *Client) Geocode(ctx context.Context, placeName string) ([]model.Candidate, error) {
	q := url.Values{}
	q.Set("q", placeName)
	q.Set("key", c.apiKey)
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "opencage: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "opencage: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "opencage: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("opencage: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "opencage: unmarshal response")
	}

	candidates := make([]model.Candidate, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Geometry.Lat == nil || r.Geometry.Lng == nil {
			continue
		}
		cand := model.Candidate{
			Address:    r.Formatted,
			Lat:        *r.Geometry.Lat,
			Lon:        *r.Geometry.Lng,
			Components: stringComponents(r.Components),
			Source:     c.Name(),
		}
		if r.Bounds != nil {
			cand.BoundingBox = &model.BoundingBox{
				MinLon: r.Bounds.Southwest.Lng,
				MinLat: r.Bounds.Southwest.Lat,
				MaxLon: r.Bounds.Northeast.Lng,
				MaxLat: r.Bounds.Northeast.Lat,
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// stringComponents keeps only the string-valued address fields; OpenCage mixes
// in arrays and numbers for some annotation keys.
func stringComponents(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
