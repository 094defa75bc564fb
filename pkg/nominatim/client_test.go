package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/newsatlas/geolocate/internal/model"
)

const genevaResponse = `[
	{
		"display_name": "Geneva, Switzerland",
		"lat": "46.2044",
		"lon": "6.1432",
		"boundingbox": ["46.1284", "46.3317", "5.9560", "6.3107"],
		"address": {"city": "Geneva", "country": "Switzerland", "country_code": "ch"}
	},
	{
		"display_name": "Broken record",
		"lat": "not-a-number",
		"lon": "6.0"
	}
]`

func newTestClient(baseURL string) *Client {
	return NewClient(
		WithBaseURL(baseURL),
		WithUserAgent("geolocate-test"),
		WithLimit(5),
		WithRateLimit(rate.NewLimiter(rate.Inf, 1)),
	)
}

func TestClient_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Geneva", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, "geolocate-test", r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(genevaResponse))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	candidates, err := c.Geocode(context.Background(), "Geneva")
	require.NoError(t, err)

	// The record with an unparsable latitude is skipped.
	require.Len(t, candidates, 1)

	got := candidates[0]
	assert.Equal(t, "Geneva, Switzerland", got.Address)
	assert.InDelta(t, 46.2044, got.Lat, 1e-9)
	assert.InDelta(t, 6.1432, got.Lon, 1e-9)
	assert.Equal(t, "nominatim", got.Source)
	assert.Equal(t, map[string]string{
		"city": "Geneva", "country": "Switzerland", "country_code": "ch",
	}, got.Components)

	// Bounding box reordered from [minlat, maxlat, minlon, maxlon].
	assert.Equal(t, &model.BoundingBox{
		MinLon: 5.9560, MinLat: 46.1284,
		MaxLon: 6.3107, MaxLat: 46.3317,
	}, got.BoundingBox)
}

func TestClient_Geocode_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Geocode(context.Background(), "Geneva")
	require.Error(t, err)
	assert.ErrorContains(t, err, "403")
}

func TestParseBoundingBox(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want *model.BoundingBox
		ok   bool
	}{
		{
			name: "valid quadruple",
			raw:  []string{"46.1", "46.3", "5.9", "6.3"},
			want: &model.BoundingBox{MinLon: 5.9, MinLat: 46.1, MaxLon: 6.3, MaxLat: 46.3},
			ok:   true,
		},
		{
			name: "wrong length",
			raw:  []string{"46.1", "46.3"},
		},
		{
			name: "unparsable value",
			raw:  []string{"46.1", "x", "5.9", "6.3"},
		},
		{
			name: "nil",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseBoundingBox(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
