package main

import (
	"context"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newsatlas/geolocate/internal/model"
	"github.com/newsatlas/geolocate/internal/resolver"
	"github.com/newsatlas/geolocate/internal/store"
)

var batchInput string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve and persist a batch of stories",
	Long:  "Reads stories from a JSONL file (one story per line), resolves their locations concurrently, and persists every story to the configured store. Stories with no locatable places are persisted unlocated.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		stories, err := readStories(batchInput)
		if err != nil {
			return err
		}
		if len(stories) == 0 {
			zap.L().Warn("batch: no stories in input", zap.String("path", batchInput))
			return nil
		}

		r, err := buildResolver(cfg)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		var located, unlocated atomic.Int64

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentStories)
		for i := range stories {
			in := stories[i]
			g.Go(func() error {
				if err := resolveAndSave(ctx, r, st, in); err != nil {
					if !isUnlocated(err) {
						return err
					}
					unlocated.Add(1)
					zap.L().Warn("batch: story unlocated",
						zap.String("url", in.URL), zap.Error(err))
					return saveUnlocated(ctx, st, in)
				}
				located.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch: done",
			zap.Int("stories", len(stories)),
			zap.Int64("located", located.Load()),
			zap.Int64("unlocated", unlocated.Load()),
		)
		return nil
	},
}

func resolveAndSave(ctx context.Context, r *resolver.Resolver, st store.Store, in storyInput) error {
	locations, err := r.ResolveStory(ctx, in.Places, in.Text)
	if err != nil {
		return err
	}
	return st.SaveStory(ctx, &model.Story{
		URL:          in.URL,
		Title:        in.Title,
		Text:         in.Text,
		Places:       in.Places,
		Locations:    locations,
		CoreLocation: resolver.PickCore(locations),
	})
}

func saveUnlocated(ctx context.Context, st store.Store, in storyInput) error {
	return st.SaveStory(ctx, &model.Story{
		URL:    in.URL,
		Title:  in.Title,
		Text:   in.Text,
		Places: in.Places,
	})
}

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "stories JSONL file")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
