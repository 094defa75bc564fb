package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsatlas/geolocate/internal/geocode"
	"github.com/newsatlas/geolocate/internal/model"
)

var geocodeProvider string

var geocodeCmd = &cobra.Command{
	Use:   "geocode <place name>",
	Short: "Query the configured geocoders for one place name",
	Long:  "Debug helper: queries every configured geocoding provider for a place name and prints the raw candidates per provider.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		providers, err := buildProviders(cfg)
		if err != nil {
			return err
		}
		registry := geocode.NewRegistry()
		for _, p := range providers {
			registry.Register(p)
		}

		if geocodeProvider != "" {
			p := registry.Get(geocodeProvider)
			if p == nil {
				return eris.Errorf("unknown provider %q (configured: %s)",
					geocodeProvider, strings.Join(registry.List(), ", "))
			}
			providers = []geocode.Provider{p}
		}

		out := make(map[string][]model.Candidate, len(providers))
		for _, p := range providers {
			candidates, err := p.Geocode(ctx, name)
			if err != nil {
				zap.L().Warn("geocode: provider failed",
					zap.String("provider", p.Name()), zap.Error(err))
				continue
			}
			out[p.Name()] = candidates
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeProvider, "provider", "", "query only this provider")
	rootCmd.AddCommand(geocodeCmd)
}
