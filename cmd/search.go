package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

var (
	searchLibrary bool
	searchTypes   []string
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search the catalog and your library",
	Long: `Search Amazon Music and print the raw result blocks as JSON.

Each block is labelled with where it came from and what it holds, e.g.
"catalog_albums" or "library_tracks". An empty query matches everything.

Example:
  amzn search "moon safari" --types album,track
  amzn search air --library`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchLibrary, "library", false, "Only search your library")
	searchCmd.Flags().StringSliceVar(&searchTypes, "types", nil, "Result types: track, album, playlist, artist, station (default: all)")
}

// parseSearchTypes turns --types into search options.
func parseSearchTypes(types []string, libraryOnly bool) (amazonmusic.SearchOptions, error) {
	if len(types) == 0 {
		opts := amazonmusic.DefaultSearchOptions()
		opts.LibraryOnly = libraryOnly
		return opts, nil
	}

	opts := amazonmusic.SearchOptions{LibraryOnly: libraryOnly}
	for _, t := range types {
		switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(t)), "s") {
		case "track":
			opts.Tracks = true
		case "album":
			opts.Albums = true
		case "playlist":
			opts.Playlists = true
		case "artist":
			opts.Artists = true
		case "station":
			opts.Stations = true
		default:
			return opts, fmt.Errorf("unknown result type %q", t)
		}
	}
	return opts, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts, err := parseSearchTypes(searchTypes, searchLibrary)
	if err != nil {
		return err
	}

	var query string
	if len(args) > 0 {
		query = args[0]
	}

	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.client.Search(cmd.Context(), query, &opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
