// Package scorer submits resolved locations to an external relevance
// classifier and merges back per-category probabilities.
package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/model"
)

// Scorer scores an ordered batch of resolved locations. Results are
// positionally aligned with the input.
type Scorer interface {
	Score(ctx context.Context, locations []model.ResolvedLocation) ([]map[string]float64, error)
}

// StatusError reports a non-2xx response from the scoring service. The body
// is preserved: a partial or garbled score set silently corrupting the
// ranking would be worse than failing loudly.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scorer: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client posts location batches to a served relevance model.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a scoring client for the given model endpoint.
func NewClient(modelURL string, opts ...Option) *Client {
	c := &Client{
		url: modelURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Score posts the full location list as one form-encoded batch and returns
// one category→probability mapping per location, in input order.
func (c *Client) Score(ctx context.Context, locations []model.ResolvedLocation) ([]map[string]float64, error) {
	payload, err := json.Marshal(locations)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: marshal locations")
	}
	form := url.Values{}
	form.Set("locations_data", string(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "scorer: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var scores []map[string]float64
	if err := json.Unmarshal(body, &scores); err != nil {
		return nil, eris.Wrap(err, "scorer: unmarshal response")
	}
	if len(scores) != len(locations) {
		return nil, eris.Errorf("scorer: got %d scores for %d locations", len(scores), len(locations))
	}
	return scores, nil
}
