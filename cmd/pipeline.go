package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/newsatlas/geolocate/internal/backquery"
	"github.com/newsatlas/geolocate/internal/config"
	"github.com/newsatlas/geolocate/internal/geocluster"
	"github.com/newsatlas/geolocate/internal/geocode"
	"github.com/newsatlas/geolocate/internal/resolver"
	"github.com/newsatlas/geolocate/internal/scorer"
	"github.com/newsatlas/geolocate/internal/store"
	"github.com/newsatlas/geolocate/pkg/nominatim"
	"github.com/newsatlas/geolocate/pkg/opencage"
)

// buildProviders assembles the configured geocoding providers.
func buildProviders(cfg *config.Config) ([]geocode.Provider, error) {
	var providers []geocode.Provider
	if cfg.OpenCage.Key != "" {
		providers = append(providers, opencage.NewClient(cfg.OpenCage.Key,
			opencage.WithBaseURL(cfg.OpenCage.BaseURL),
			opencage.WithLimit(cfg.OpenCage.Limit),
		))
	}
	if cfg.Nominatim.Enabled {
		providers = append(providers, nominatim.NewClient(
			nominatim.WithBaseURL(cfg.Nominatim.BaseURL),
			nominatim.WithUserAgent(cfg.Nominatim.UserAgent),
			nominatim.WithLimit(cfg.Nominatim.Limit),
		))
	}
	if len(providers) == 0 {
		return nil, eris.New("no geocoding provider configured: set opencage.key or enable nominatim")
	}
	return providers, nil
}

// buildResolver wires the full pipeline from configuration.
func buildResolver(cfg *config.Config) (*resolver.Resolver, error) {
	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	filter := backquery.New(backquery.WithThreshold(cfg.Filter.Threshold))
	clusterer := geocluster.NewClusterer(cfg.Cluster.MaxDistKm, cfg.Cluster.MinSize)
	grower := geocluster.NewGrower(clusterer)

	r := resolver.New(providers, filter, grower)
	if cfg.Scorer.URL != "" {
		r = r.WithScorer(scorer.NewClient(cfg.Scorer.URL))
	}
	return r, nil
}

// openStore opens and migrates the configured story store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
