package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var albumURLs bool

var albumCmd = &cobra.Command{
	Use:   "album ASIN",
	Short: "Show an album and its tracks",
	Long: `Look up an album by ASIN and list its tracks.

Example:
  amzn album B00J9AEZ7G --urls`,
	Args: cobra.ExactArgs(1),
	RunE: runAlbum,
}

func init() {
	rootCmd.AddCommand(albumCmd)
	albumCmd.Flags().BoolVar(&albumURLs, "urls", false, "Print the stream URL of every track")
}

func runAlbum(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	album, err := s.client.Album(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to look up album: %w", err)
	}
	tracks, err := album.Tracks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	out := cmd.OutOrStdout()
	printAlbumHeader(out, album)
	printer := &trackPrinter{w: out, width: s.cfg.OutputWidth, urls: albumURLs}
	return printer.printAll(ctx, tracks)
}
