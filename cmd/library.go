package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var libraryLimit int

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List the albums in your library",
	Long: `List the albums in your library, 100 per request.

Only Prime albums with at least four tracks are listed; singles and EPs
are skipped. Use 'amzn album ASIN' to see an album's tracks.`,
	Args: cobra.NoArgs,
	RunE: runLibrary,
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.Flags().IntVarP(&libraryLimit, "limit", "n", 0, "Stop after this many albums (0 lists all)")
}

func runLibrary(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	count := 0
	for album, err := range s.client.AlbumsInLibrary().All(cmd.Context()) {
		if err != nil {
			return fmt.Errorf("failed to list library: %w", err)
		}
		printAlbumLine(out, album, s.cfg.OutputWidth)
		count++
		if libraryLimit > 0 && count >= libraryLimit {
			break
		}
	}

	s.logger.Debug().Int("albums", count).Msg("Listed library")
	return nil
}
