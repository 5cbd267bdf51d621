package amazonmusic

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Playlist is a playable playlist. Its track list is loaded with it.
type Playlist struct {
	ID         string
	Name       string
	CoverURL   string
	Genre      string
	Rating     float64 // Average review score out of 5
	TrackCount int
	Raw        json.RawMessage

	tracks []*Track
}

func newPlaylist(c *Client, data gjson.Result) (*Playlist, error) {
	p := payload{data}
	pl := &Playlist{Raw: p.raw()}

	var err error
	if pl.ID, err = p.requireString("asin"); err != nil {
		return nil, err
	}
	if pl.CoverURL, err = p.requireString("image"); err != nil {
		return nil, err
	}
	if pl.Name, err = p.requireString("title"); err != nil {
		return nil, err
	}
	if pl.Genre, err = p.requireString("primaryGenre"); err != nil {
		return nil, err
	}

	rating, err := p.require("reviews.average")
	if err != nil {
		return nil, err
	}
	pl.Rating = rating.Float()

	count, err := p.require("trackCount")
	if err != nil {
		return nil, err
	}
	pl.TrackCount = int(count.Int())

	items, err := p.items("tracks")
	if err != nil {
		return nil, err
	}
	if pl.tracks, err = newTracks(c, items); err != nil {
		return nil, err
	}

	return pl, nil
}

// Tracks returns the tracks that make up the playlist.
func (pl *Playlist) Tracks() []*Track {
	out := make([]*Track, len(pl.tracks))
	copy(out, pl.tracks)
	return out
}
