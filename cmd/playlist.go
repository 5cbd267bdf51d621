package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var playlistURLs bool

var playlistCmd = &cobra.Command{
	Use:   "playlist ASIN",
	Short: "Show a playlist and its tracks",
	Long: `Look up a playlist by ASIN and list its tracks.

Example:
  amzn playlist B075QGZDZ3`,
	Args: cobra.ExactArgs(1),
	RunE: runPlaylist,
}

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.Flags().BoolVar(&playlistURLs, "urls", false, "Print the stream URL of every track")
}

func runPlaylist(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	playlist, err := s.client.Playlist(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}

	out := cmd.OutOrStdout()
	printPlaylistHeader(out, playlist)
	printer := &trackPrinter{w: out, width: s.cfg.OutputWidth, urls: playlistURLs}
	return printer.printAll(ctx, playlist.Tracks())
}
