package geocluster

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsatlas/geolocate/internal/model"
)

var (
	genevaCH = model.Candidate{Address: "Geneva, Switzerland", Lat: 46.2044, Lon: 6.1432}
	genevaIL = model.Candidate{Address: "Geneva, Illinois, United States", Lat: 41.8875, Lon: -88.3054}
	lausCH   = model.Candidate{Address: "Lausanne, Switzerland", Lat: 46.5197, Lon: 6.6323}
	montCH   = model.Candidate{Address: "Montreux, Switzerland", Lat: 46.4312, Lon: 6.9107}
)

func newTestGrower(seed int64) *Grower {
	return NewGrower(NewClusterer(0, 0)).WithRand(rand.New(rand.NewSource(seed)))
}

func TestSumSquares(t *testing.T) {
	assert.Zero(t, SumSquares(nil))
	assert.Equal(t, 9.0, SumSquares([]int{3}))
	assert.Equal(t, 5.0, SumSquares([]int{2, 1, 0}))

	// One cluster of three beats three singletons and a two-one split.
	assert.Greater(t, SumSquares([]int{3, 0, 0}), SumSquares([]int{2, 1, 0}))
	assert.Greater(t, SumSquares([]int{2, 1, 0}), SumSquares([]int{1, 1, 1}))
}

func TestGrower_Resolve_NoCoordinates(t *testing.T) {
	g := newTestGrower(1)

	_, err := g.Resolve(nil)
	assert.ErrorIs(t, err, ErrNoCoordinates)

	_, err = g.Resolve(map[string][]model.Candidate{
		"Atlantis": {},
		"Mu":       {},
	})
	assert.ErrorIs(t, err, ErrNoCoordinates)
}

func TestGrower_Resolve_Singleton(t *testing.T) {
	g := newTestGrower(1)

	clusters, err := g.Resolve(map[string][]model.Candidate{
		"Geneva": {genevaCH},
	})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, genevaCH, clusters[0]["Geneva"])
}

func TestGrower_Resolve_SeedsNearbyPlacesTogether(t *testing.T) {
	g := newTestGrower(1)

	clusters, err := g.Resolve(map[string][]model.Candidate{
		"Geneva":   {genevaCH},
		"Lausanne": {lausCH},
		"Geneva2":  {genevaIL},
	})
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	sizes := clusterSizes(clusters)
	assert.Equal(t, []int{1, 2}, sizes)
}

func TestGrower_Resolve_MovesToAlternativeCandidate(t *testing.T) {
	// The top-ranked Geneva candidate is the Illinois one, seeding a
	// singleton far from the Swiss cluster. Growth should reassign Geneva
	// to its Swiss candidate, merging everything into one cluster.
	candidates := map[string][]model.Candidate{
		"Geneva":   {genevaIL, genevaCH},
		"Lausanne": {lausCH},
		"Montreux": {montCH},
	}

	for seed := int64(0); seed < 5; seed++ {
		g := newTestGrower(seed)
		clusters, err := g.Resolve(candidates)
		require.NoError(t, err)
		require.Len(t, clusters, 1)

		cluster := clusters[0]
		assert.Len(t, cluster, 3)
		assert.Equal(t, genevaCH, cluster["Geneva"])
		assert.Equal(t, lausCH, cluster["Lausanne"])
	}
}

func TestGrower_Resolve_RejectsNonImprovingMove(t *testing.T) {
	// Two mutually distant singletons with no alternative candidates: no
	// legal move exists and the seed arrangement must survive as-is.
	g := newTestGrower(1)

	clusters, err := g.Resolve(map[string][]model.Candidate{
		"Geneva":  {genevaCH},
		"Chicago": {{Address: "Chicago, Illinois", Lat: 41.8781, Lon: -87.6298}},
	})
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
}

func TestGrower_Resolve_BoundingBoxMatchBeyondMaxDist(t *testing.T) {
	// The alternative candidate's point is far outside max distance, but its
	// bounding box overlaps a cluster member's, so the move is still legal.
	region := model.Candidate{
		Address: "Western Region",
		Lat:     0, Lon: 3, // ~330 km from the anchor
		BoundingBox: &model.BoundingBox{MinLon: 0.5, MinLat: -0.5, MaxLon: 4, MaxLat: 0.5},
	}
	anchor := model.Candidate{
		Address: "Anchor City",
		Lat:     0, Lon: 0,
		BoundingBox: &model.BoundingBox{MinLon: -1, MinLat: -1, MaxLon: 1, MaxLat: 1},
	}
	farPoint := model.Candidate{Address: "Far Town", Lat: 30, Lon: 30}

	candidates := map[string][]model.Candidate{
		"Anchor": {anchor},
		"Region": {farPoint, region},
	}

	g := newTestGrower(1)
	clusters, err := g.Resolve(candidates)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, region, clusters[0]["Region"])
}

func TestGrower_Resolve_OutlierSeedsStaySingletons(t *testing.T) {
	// With MinSize 2 both seeds fall out of clustering as outliers; they
	// must still be carried as singleton clusters rather than dropped.
	g := NewGrower(NewClusterer(150, 2)).WithRand(rand.New(rand.NewSource(1)))

	clusters, err := g.Resolve(map[string][]model.Candidate{
		"Geneva":  {genevaCH},
		"Chicago": {{Address: "Chicago, Illinois", Lat: 41.8781, Lon: -87.6298}},
	})
	require.NoError(t, err)
	assert.Len(t, clusters, 2)
	assert.Equal(t, []int{1, 1}, clusterSizes(clusters))
}

func TestGrower_Resolve_ConvergedOutputIsStable(t *testing.T) {
	// Re-running the grower on its own converged assignment (one candidate
	// per place) must reproduce the same cluster sizes with zero moves left.
	g := newTestGrower(1)
	clusters, err := g.Resolve(map[string][]model.Candidate{
		"Geneva":   {genevaIL, genevaCH},
		"Lausanne": {lausCH},
		"Montreux": {montCH},
	})
	require.NoError(t, err)

	converged := make(map[string][]model.Candidate)
	for _, cl := range clusters {
		for name, cand := range cl {
			converged[name] = []model.Candidate{cand}
		}
	}

	again, err := newTestGrower(2).Resolve(converged)
	require.NoError(t, err)
	assert.Equal(t, clusterSizes(clusters), clusterSizes(again))
}

func TestGrower_Resolve_DeterministicObjectiveAcrossSeeds(t *testing.T) {
	candidates := map[string][]model.Candidate{
		"Geneva":   {genevaIL, genevaCH},
		"Lausanne": {lausCH},
		"Montreux": {montCH},
		"Chicago":  {{Address: "Chicago, Illinois", Lat: 41.8781, Lon: -87.6298}},
	}

	var objectives []float64
	for seed := int64(0); seed < 8; seed++ {
		g := newTestGrower(seed)
		clusters, err := g.Resolve(candidates)
		require.NoError(t, err)

		sizes := make([]int, len(clusters))
		for i, cl := range clusters {
			sizes[i] = len(cl)
		}
		objectives = append(objectives, SumSquares(sizes))
	}
	for _, o := range objectives[1:] {
		assert.Equal(t, objectives[0], o)
	}
}

func clusterSizes(clusters []Cluster) []int {
	sizes := make([]int, len(clusters))
	for i, cl := range clusters {
		sizes[i] = len(cl)
	}
	sort.Ints(sizes)
	return sizes
}
