package geocluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	geneva   = Point{Lat: 46.2044, Lon: 6.1432}
	lausanne = Point{Lat: 46.5197, Lon: 6.6323}
	bern     = Point{Lat: 46.9480, Lon: 7.4474}
	zurich   = Point{Lat: 47.3769, Lon: 8.5417}
	chicago  = Point{Lat: 41.8781, Lon: -87.6298}
)

func TestHaversineKm(t *testing.T) {
	assert.Zero(t, HaversineKm(geneva, geneva))

	// Geneva to Lausanne is roughly 51 km.
	assert.InDelta(t, 51, HaversineKm(geneva, lausanne), 2)

	// Geneva to Zurich is roughly 224 km.
	assert.InDelta(t, 224, HaversineKm(geneva, zurich), 5)

	assert.Equal(t, HaversineKm(geneva, chicago), HaversineKm(chicago, geneva))
}

func TestNewClusterer_Defaults(t *testing.T) {
	c := NewClusterer(0, 0)
	assert.Equal(t, DefaultMaxDistKm, c.MaxDistKm)
	assert.Equal(t, DefaultMinSize, c.MinSize)

	c = NewClusterer(300, 2)
	assert.Equal(t, 300.0, c.MaxDistKm)
	assert.Equal(t, 2, c.MinSize)
}

func TestClusterer_Cluster(t *testing.T) {
	tests := []struct {
		name      string
		maxDistKm float64
		minSize   int
		points    []Point
		wantSizes []int
	}{
		{
			name:      "empty input",
			points:    nil,
			wantSizes: nil,
		},
		{
			name:      "single point forms its own cluster",
			points:    []Point{geneva},
			wantSizes: []int{1},
		},
		{
			name:      "nearby points merge",
			points:    []Point{geneva, lausanne},
			wantSizes: []int{2},
		},
		{
			name:      "distant points split",
			points:    []Point{geneva, chicago},
			wantSizes: []int{1, 1},
		},
		{
			name:      "chain reachability bridges beyond max distance",
			points:    []Point{geneva, bern, zurich}, // Geneva-Zurich > 150 km, Bern bridges
			wantSizes: []int{3},
		},
		{
			name:      "min size two drops lone outlier",
			minSize:   2,
			points:    []Point{geneva, lausanne, chicago},
			wantSizes: []int{2},
		},
		{
			name:      "tight max distance splits neighbors",
			maxDistKm: 10,
			points:    []Point{geneva, lausanne},
			wantSizes: []int{1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClusterer(tt.maxDistKm, tt.minSize)
			groups := c.Cluster(tt.points)

			var sizes []int
			for _, g := range groups {
				sizes = append(sizes, len(g))
			}
			assert.ElementsMatch(t, tt.wantSizes, sizes)
		})
	}
}

func TestClusterer_Cluster_DoesNotMutateInput(t *testing.T) {
	points := []Point{geneva, lausanne, chicago}
	original := append([]Point(nil), points...)

	NewClusterer(0, 0).Cluster(points)
	assert.Equal(t, original, points)
}
