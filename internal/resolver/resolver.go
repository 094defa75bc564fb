// Package resolver orchestrates the geolocation pipeline for one article:
// geocode extracted place names, filter candidates against the article text,
// grow spatial clusters, and select the story's core location.
package resolver

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/newsatlas/geolocate/internal/backquery"
	"github.com/newsatlas/geolocate/internal/geocluster"
	"github.com/newsatlas/geolocate/internal/geocode"
	"github.com/newsatlas/geolocate/internal/model"
	"github.com/newsatlas/geolocate/internal/scorer"
)

// MaxMentions caps the mention sentences kept per place. The limit impacts
// the classifier architecture, so it is fixed here rather than configurable.
const MaxMentions = 6

// coreCutoff is the minimum classifier probability for a location to qualify
// as the story's core location.
const coreCutoff = 0.5

// ErrNoCandidates indicates no geocoding provider returned a candidate for
// any place; the caller should treat the story as unlocated.
var ErrNoCandidates = eris.New("resolver: no candidate geocodings found")

// Resolver owns the working set for one article for the lifetime of one
// resolution call. No state is shared across calls.
type Resolver struct {
	providers []geocode.Provider
	filter    *backquery.Filter
	grower    *geocluster.Grower
	scorer    scorer.Scorer
}

// New creates a Resolver over the given providers.
func New(providers []geocode.Provider, filter *backquery.Filter, grower *geocluster.Grower) *Resolver {
	return &Resolver{
		providers: providers,
		filter:    filter,
		grower:    grower,
	}
}

// WithScorer attaches an external relevance classifier. Without one,
// locations are returned unscored and no core location can be selected.
func (r *Resolver) WithScorer(s scorer.Scorer) *Resolver {
	r.scorer = s
	return r
}

// ResolveStory geocodes, filters, clusters, and optionally scores the places
// of one article. Per-provider geocoding failures are absorbed; scorer
// failures propagate, since silently treating an unscored story as having no
// core location would be worse than failing loudly.
func (r *Resolver) ResolveStory(ctx context.Context, places map[string]model.Place, text string) (map[string]model.ResolvedLocation, error) {
	names := make([]string, 0, len(places))
	for name := range places {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := geocode.Assemble(ctx, r.providers, names)
	if len(raw) == 0 {
		return nil, ErrNoCandidates
	}

	filtered := r.filter.Select(raw, text)
	clusters, err := r.grower.Resolve(filtered)
	if err != nil {
		return nil, err
	}

	// cluster_ratio is relative to the places that survived filtering.
	denom := float64(len(filtered))

	locations := make(map[string]model.ResolvedLocation)
	for _, cluster := range clusters {
		members := make([]string, 0, len(cluster))
		for name := range cluster {
			members = append(members, name)
		}
		sort.Strings(members)
		for name, cand := range cluster {
			place := places[name]
			locations[name] = model.ResolvedLocation{
				Name:         name,
				Address:      cand.Address,
				Lat:          cand.Lat,
				Lon:          cand.Lon,
				BoundingBox:  cand.BoundingBox,
				Source:       cand.Source,
				Text:         place.Text,
				Relevance:    place.Relevance,
				Mentions:     FindMentions(place.Text, text, MaxMentions),
				Cluster:      members,
				ClusterRatio: float64(len(cluster)) / denom,
			}
		}
	}

	if r.scorer != nil {
		if err := r.score(ctx, locations); err != nil {
			return nil, err
		}
	}

	zap.L().Info("resolver: story resolved",
		zap.Int("places", len(places)),
		zap.Int("located", len(locations)),
		zap.Int("clusters", len(clusters)),
	)
	return locations, nil
}

// score submits all locations in one stable-ordered batch and merges the
// returned map_relevance scores back positionally.
func (r *Resolver) score(ctx context.Context, locations map[string]model.ResolvedLocation) error {
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	ordered := make([]model.ResolvedLocation, len(names))
	for i, name := range names {
		ordered[i] = locations[name]
	}
	scores, err := r.scorer.Score(ctx, ordered)
	if err != nil {
		return err
	}
	for i, name := range names {
		loc := locations[name]
		loc.MapRelevance = scores[i]
		locations[name] = loc
	}
	return nil
}

// PickCore selects the single location whose classifier probability clears
// the cutoff, ranking by "core" probability first and "relevant" second.
// Returns nil when no location qualifies: an arbitrary low-confidence pick
// would be worse than none.
func PickCore(locations map[string]model.ResolvedLocation) *model.CoreLocation {
	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	var ranked []model.ResolvedLocation
	for _, status := range []string{"core", "relevant"} {
		var qualified []model.ResolvedLocation
		for _, name := range names {
			loc := locations[name]
			if p, ok := loc.MapRelevance[status]; ok && p > coreCutoff {
				qualified = append(qualified, loc)
			}
		}
		status := status
		sort.SliceStable(qualified, func(i, j int) bool {
			return qualified[i].MapRelevance[status] > qualified[j].MapRelevance[status]
		})
		ranked = append(ranked, qualified...)
	}
	if len(ranked) == 0 {
		return nil
	}

	best := ranked[0]
	return &model.CoreLocation{
		Text:         best.Text,
		Address:      best.Address,
		Lat:          best.Lat,
		Lon:          best.Lon,
		BoundingBox:  best.BoundingBox,
		Mentions:     best.Mentions,
		MapRelevance: best.MapRelevance,
	}
}
