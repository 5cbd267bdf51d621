package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

var urlCmd = &cobra.Command{
	Use:   "url album|playlist ASIN [TRACK]",
	Short: "Print a stream URL",
	Long: `Print the stream URL of one track, numbered from 1, of an album or
playlist. Without a track number every track's URL is printed.

The URL points at an M3U playlist and can be handed to a player:
  mpv "$(amzn url album B00J9AEZ7G 3)"`,
	Args:      cobra.RangeArgs(2, 3),
	ValidArgs: []string{"album", "playlist"},
	RunE:      runURL,
}

func init() {
	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	kind, id := args[0], args[1]
	if kind != "album" && kind != "playlist" {
		return fmt.Errorf("unknown kind %q, expected album or playlist", kind)
	}

	number := 0
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid track number %q", args[2])
		}
		number = n
	}

	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	var tracks []*amazonmusic.Track
	switch kind {
	case "album":
		album, err := s.client.Album(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to look up album: %w", err)
		}
		if tracks, err = album.Tracks(ctx); err != nil {
			return fmt.Errorf("failed to load tracks: %w", err)
		}
	case "playlist":
		playlist, err := s.client.Playlist(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to look up playlist: %w", err)
		}
		tracks = playlist.Tracks()
	}

	if number > len(tracks) {
		return fmt.Errorf("track %d out of range, %s %s has %d tracks", number, kind, id, len(tracks))
	}
	if number > 0 {
		tracks = tracks[number-1 : number]
	}

	out := cmd.OutOrStdout()
	for _, track := range tracks {
		u, err := track.URL(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stream url for %q: %w", track.Name, err)
		}
		fmt.Fprintln(out, u)
	}
	return nil
}
