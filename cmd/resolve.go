package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/newsatlas/geolocate/internal/geocluster"
	"github.com/newsatlas/geolocate/internal/model"
	"github.com/newsatlas/geolocate/internal/resolver"
)

var (
	resolveInput  string
	resolveFormat string
	resolveSave   bool
)

// resolveOutput is the shape printed to stdout.
type resolveOutput struct {
	Locations    map[string]model.ResolvedLocation `json:"locations" yaml:"locations"`
	CoreLocation *model.CoreLocation               `json:"core_location,omitempty" yaml:"core_location,omitempty"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the locations of a single story",
	Long:  "Reads one story (extracted text plus place names) from a JSON file or stdin, resolves its locations, and prints them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		in, err := readStory(resolveInput)
		if err != nil {
			return err
		}

		r, err := buildResolver(cfg)
		if err != nil {
			return err
		}

		locations, err := r.ResolveStory(ctx, in.Places, in.Text)
		if err != nil && !isUnlocated(err) {
			return err
		}
		core := resolver.PickCore(locations)

		if resolveSave {
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			story := &model.Story{
				URL:          in.URL,
				Title:        in.Title,
				Text:         in.Text,
				Places:       in.Places,
				Locations:    locations,
				CoreLocation: core,
			}
			if err := st.SaveStory(ctx, story); err != nil {
				return err
			}
			zap.L().Info("story saved", zap.String("id", story.ID), zap.String("url", story.URL))
		}

		out := resolveOutput{Locations: locations, CoreLocation: core}
		switch resolveFormat {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(out)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		default:
			return eris.Errorf("unknown output format %q", resolveFormat)
		}
	},
}

// isUnlocated reports whether err means the story simply has no locatable
// places, as opposed to a pipeline failure.
func isUnlocated(err error) bool {
	return errors.Is(err, resolver.ErrNoCandidates) ||
		errors.Is(err, geocluster.ErrNoCoordinates)
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveInput, "input", "i", "-", "story JSON file, or - for stdin")
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", "json", "output format: json or yaml")
	resolveCmd.Flags().BoolVar(&resolveSave, "save", false, "persist the story to the configured store")
	rootCmd.AddCommand(resolveCmd)
}
