package geocluster

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/newsatlas/geolocate/internal/model"
)

// ErrNoCoordinates indicates that no place carried any coordinate data, so
// there is nothing to seed clusters from.
var ErrNoCoordinates = eris.New("geocluster: no candidate coordinates to seed from")

// Cluster maps place name to the candidate accepted for it. Clusters are
// mutually exclusive over place names.
type Cluster map[string]model.Candidate

// Objective scores a cluster arrangement from its cluster sizes. The growth
// heuristic assumes correctly geocoded places mentioned together tend to be
// geographically coincident, so the default rewards fewer, larger clusters.
type Objective func(sizes []int) float64

// SumSquares is the default objective: the sum of squared cluster sizes.
func SumSquares(sizes []int) float64 {
	var total float64
	for _, s := range sizes {
		total += float64(s) * float64(s)
	}
	return total
}

// Grower seeds clusters from the top-ranked candidate per place, then greedily
// reassigns places to alternative candidates while the objective improves.
type Grower struct {
	clusterer Clusterer
	objective Objective
	rng       *rand.Rand
}

// NewGrower creates a Grower backed by the given Clusterer.
func NewGrower(c Clusterer) *Grower {
	return &Grower{
		clusterer: c,
		objective: SumSquares,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand sets the random source used to order passes. Injectable for tests.
func (g *Grower) WithRand(r *rand.Rand) *Grower {
	g.rng = r
	return g
}

// WithObjective replaces the growth objective.
func (g *Grower) WithObjective(o Objective) *Grower {
	g.objective = o
	return g
}

// Resolve assigns each candidate-bearing place to a spatial cluster. Seeding
// takes the first-ranked candidate per place; growth then tries every
// remaining candidate against every cluster until a full pass accepts no
// move. The objective is monotonically increasing and bounded by the squared
// place count, so termination is guaranteed.
func (g *Grower) Resolve(candidates map[string][]model.Candidate) ([]Cluster, error) {
	names := make([]string, 0, len(candidates))
	for name, cands := range candidates {
		if len(cands) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoCoordinates
	}
	sort.Strings(names)

	arena, index := g.seed(names, candidates)

	passes := 0
	for {
		passes++
		g.shuffle(arena, index)
		moved := false
		order := append([]string(nil), names...)
		g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, name := range order {
			for _, cand := range candidates[name] {
				if g.tryMove(arena, index, name, cand) {
					moved = true
				}
			}
		}
		if !moved {
			break
		}
	}

	var out []Cluster
	for _, cl := range arena {
		if len(cl) > 0 {
			out = append(out, cl)
		}
	}
	zap.L().Debug("geocluster: growth converged",
		zap.Int("places", len(names)),
		zap.Int("clusters", len(out)),
		zap.Int("passes", passes),
	)
	return out, nil
}

// seed clusters the first-ranked candidate per place and maps each resulting
// spatial group to a cluster. Places whose seed point fell out as an outlier
// start as unassigned singletons, pending growth.
func (g *Grower) seed(names []string, candidates map[string][]model.Candidate) ([]Cluster, map[string]int) {
	points := make([]Point, len(names))
	for i, name := range names {
		c := candidates[name][0]
		points[i] = Point{Lat: c.Lat, Lon: c.Lon}
	}
	groups := g.clusterer.Cluster(points)

	var arena []Cluster
	index := make(map[string]int, len(names))
	for _, group := range groups {
		members := make(map[Point]bool, len(group))
		for _, p := range group {
			members[p] = true
		}
		cl := Cluster{}
		for i, name := range names {
			if _, assigned := index[name]; assigned {
				continue
			}
			if members[points[i]] {
				cl[name] = candidates[name][0]
				index[name] = len(arena)
			}
		}
		if len(cl) > 0 {
			arena = append(arena, cl)
		}
	}
	for _, name := range names {
		if _, assigned := index[name]; !assigned {
			arena = append(arena, Cluster{name: candidates[name][0]})
			index[name] = len(arena) - 1
		}
	}
	return arena, index
}

// shuffle reorders the cluster arena, rebuilding the place index. Order
// affects only which cluster a tie is attributed to, not the final
// objective value.
func (g *Grower) shuffle(arena []Cluster, index map[string]int) {
	g.rng.Shuffle(len(arena), func(i, j int) { arena[i], arena[j] = arena[j], arena[i] })
	for i, cl := range arena {
		for name := range cl {
			index[name] = i
		}
	}
}

// tryMove attempts to reassign name to another cluster using the given
// candidate. The move must match spatially and strictly increase the
// objective; acceptance applies as a single atomic update.
func (g *Grower) tryMove(arena []Cluster, index map[string]int, name string, cand model.Candidate) bool {
	src := index[name]
	dst := g.matchCluster(arena, src, cand)
	if dst < 0 {
		return false
	}

	sizes := make([]int, len(arena))
	for i, cl := range arena {
		sizes[i] = len(cl)
	}
	trial := append([]int(nil), sizes...)
	trial[dst]++
	trial[src]--
	if g.objective(trial) <= g.objective(sizes) {
		return false
	}

	delete(arena[src], name)
	arena[dst][name] = cand
	index[name] = dst
	return true
}

// matchCluster finds the first cluster other than src that the candidate
// matches, either by spatial intersection with a member or by lying within
// MaxDistKm of a member's coordinates. Returns -1 if none match.
func (g *Grower) matchCluster(arena []Cluster, src int, cand model.Candidate) int {
	extent := cand.Extent()
	point := Point{Lat: cand.Lat, Lon: cand.Lon}
	for n, cl := range arena {
		if n == src || len(cl) == 0 {
			continue
		}
		for _, member := range cl {
			if extent.Intersects(member.Extent()) {
				return n
			}
			if HaversineKm(point, Point{Lat: member.Lat, Lon: member.Lon}) <= g.clusterer.MaxDistKm {
				return n
			}
		}
	}
	return -1
}
