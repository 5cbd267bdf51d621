package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

const ellipsis = "..."

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for wide characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	if runewidth.StringWidth(text) > width {
		if width <= len(ellipsis) {
			return ellipsis[:width]
		}
		text = runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	}

	// FillRight pads with spaces up to the exact column count
	return runewidth.FillRight(text, width)
}

// formatDuration formats a duration as M:SS, or H:MM:SS when it is an
// hour or longer. Unknown durations print as "-:--".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-:--"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// trackPrinter writes one line per track.
type trackPrinter struct {
	w     io.Writer
	width int
	urls  bool
}

// print writes a track line. With urls set it looks up the stream URL and
// prints it on the next line.
func (p *trackPrinter) print(ctx context.Context, index int, track *amazonmusic.Track) error {
	fmt.Fprintf(p.w, "%3d. %s  %s  %s\n",
		index+1,
		padToWidth(track.Name, p.width),
		padToWidth(track.Artist, p.width/2),
		formatDuration(track.Duration))

	if !p.urls {
		return nil
	}
	u, err := track.URL(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream url for %q: %w", track.Name, err)
	}
	fmt.Fprintf(p.w, "     %s\n", u)
	return nil
}

func (p *trackPrinter) printAll(ctx context.Context, tracks []*amazonmusic.Track) error {
	for i, track := range tracks {
		if err := p.print(ctx, i, track); err != nil {
			return err
		}
	}
	return nil
}

func printAlbumHeader(w io.Writer, album *amazonmusic.Album) {
	fmt.Fprintf(w, "%s - %s\n", album.Artist, album.Name)

	var meta []string
	if album.Genre != "" {
		meta = append(meta, album.Genre)
	}
	if album.ReleaseDate != nil {
		meta = append(meta, album.ReleaseDate.Format("2006"))
	}
	meta = append(meta, fmt.Sprintf("%d tracks", album.TrackCount))
	if album.Rating != nil {
		meta = append(meta, fmt.Sprintf("rated %.1f", *album.Rating))
	}
	fmt.Fprintf(w, "%s\n", strings.Join(meta, " · "))
	if album.CoverURL != "" {
		fmt.Fprintf(w, "%s\n", album.CoverURL)
	}
	fmt.Fprintln(w)
}

func printPlaylistHeader(w io.Writer, playlist *amazonmusic.Playlist) {
	fmt.Fprintf(w, "%s\n", playlist.Name)
	fmt.Fprintf(w, "%s · %d tracks · rated %.1f\n", playlist.Genre, playlist.TrackCount, playlist.Rating)
	if playlist.CoverURL != "" {
		fmt.Fprintf(w, "%s\n", playlist.CoverURL)
	}
	fmt.Fprintln(w)
}

func printStationHeader(w io.Writer, station *amazonmusic.Station) {
	fmt.Fprintf(w, "%s (%s)\n", station.Name, station.ID)
	if station.CoverURL != "" {
		fmt.Fprintf(w, "%s\n", station.CoverURL)
	}
	fmt.Fprintln(w)
}

// printAlbumLine writes one library listing line.
func printAlbumLine(w io.Writer, album *amazonmusic.Album, width int) {
	fmt.Fprintf(w, "%s  %s  %s  %3d\n",
		album.ID,
		padToWidth(album.Name, width),
		padToWidth(album.Artist, width/2),
		album.TrackCount)
}
