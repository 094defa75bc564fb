package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/newsatlas/geolocate/internal/store"
)

var (
	storiesLimit  int
	storiesOffset int
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Inspect persisted stories",
}

var storiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted stories, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		stories, err := st.ListStories(ctx, store.StoryFilter{
			Limit:  storiesLimit,
			Offset: storiesOffset,
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stories)
	},
}

var storiesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one persisted story by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		story, err := st.GetStory(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(story)
	},
}

func init() {
	storiesListCmd.Flags().IntVar(&storiesLimit, "limit", 50, "maximum stories to return")
	storiesListCmd.Flags().IntVar(&storiesOffset, "offset", 0, "stories to skip")
	storiesCmd.AddCommand(storiesListCmd)
	storiesCmd.AddCommand(storiesGetCmd)
	rootCmd.AddCommand(storiesCmd)
}
