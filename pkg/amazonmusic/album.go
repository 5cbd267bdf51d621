package amazonmusic

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// albumShape is the upstream representation an album was built from.
type albumShape int

const (
	// albumShapeFull is the catalog lookup (muse) shape: complete metadata
	// and, usually, the track list.
	albumShapeFull albumShape = iota
	// albumShapeSummary is the library search (cirrus) shape: metadata is
	// nested under "metadata", the track count sits on the outer object and
	// there are no tracks, rating or release date.
	albumShapeSummary
)

func resolveAlbumShape(p payload) albumShape {
	if _, ok := p.optional("metadata"); ok {
		return albumShapeSummary
	}
	return albumShapeFull
}

// Album is a playable album.
//
// An album listed from the library starts as a summary. Resolve (or Tracks)
// fetches the full record once and updates the album in place. Resolve and
// Tracks may be called concurrently; the exported fields must not be read
// while a Resolve is in flight.
type Album struct {
	ID          string
	Name        string
	Artist      string
	CoverURL    string
	Genre       string
	Rating      *float64   // Average review score out of 5; nil for summaries
	TrackCount  int
	ReleaseDate *time.Time // Original release date; nil for summaries
	Raw         json.RawMessage

	mu        sync.Mutex
	client    *Client
	shape     albumShape
	hasTracks bool
	tracks    []gjson.Result
}

func newAlbum(c *Client, data gjson.Result) (*Album, error) {
	a := &Album{client: c}
	if err := a.load(payload{data}); err != nil {
		return nil, err
	}
	return a, nil
}

// load replaces the album's state with the normalized payload.
func (a *Album) load(p payload) error {
	var next *Album
	var err error
	switch resolveAlbumShape(p) {
	case albumShapeSummary:
		next, err = summaryAlbum(p)
	default:
		next, err = fullAlbum(p)
	}
	if err != nil {
		return err
	}

	a.ID = next.ID
	a.Name = next.Name
	a.Artist = next.Artist
	a.CoverURL = next.CoverURL
	a.Genre = next.Genre
	a.Rating = next.Rating
	a.TrackCount = next.TrackCount
	a.ReleaseDate = next.ReleaseDate
	a.Raw = next.Raw
	a.shape = next.shape
	a.hasTracks = next.hasTracks
	a.tracks = next.tracks
	return nil
}

func summaryAlbum(p payload) (*Album, error) {
	a := &Album{shape: albumShapeSummary, Raw: p.raw()}

	count, err := p.require("numTracks")
	if err != nil {
		return nil, err
	}
	a.TrackCount = int(count.Int())

	meta, err := p.child("metadata")
	if err != nil {
		return nil, err
	}
	if a.ID, err = meta.requireString("albumAsin"); err != nil {
		return nil, err
	}
	a.CoverURL, _ = meta.firstString("albumCoverImageFull", "albumCoverImageMedium")
	if a.Name, err = meta.requireString("albumName"); err != nil {
		return nil, err
	}
	if a.Artist, err = meta.requireString("albumArtistName"); err != nil {
		return nil, err
	}
	if a.Genre, err = meta.requireString("primaryGenre"); err != nil {
		return nil, err
	}

	return a, nil
}

func fullAlbum(p payload) (*Album, error) {
	a := &Album{shape: albumShapeFull, Raw: p.raw()}

	var err error
	if a.ID, err = p.requireString("asin"); err != nil {
		return nil, err
	}
	if a.CoverURL, err = p.requireString("image"); err != nil {
		return nil, err
	}
	if a.Name, err = p.requireString("title"); err != nil {
		return nil, err
	}
	if a.Artist, err = p.requireString("artist.name"); err != nil {
		return nil, err
	}

	details, err := p.child("productDetails")
	if err != nil {
		return nil, err
	}
	if genre, ok := details.optional("primaryGenreName"); ok {
		a.Genre = genre.String()
	}

	rating, err := p.require("reviews.average")
	if err != nil {
		return nil, err
	}
	avg := rating.Float()
	a.Rating = &avg

	count, err := p.require("trackCount")
	if err != nil {
		return nil, err
	}
	a.TrackCount = int(count.Int())

	released, err := p.require("originalReleaseDate")
	if err != nil {
		return nil, err
	}
	date := time.UnixMilli(released.Int()).UTC()
	a.ReleaseDate = &date

	if _, ok := p.optional("tracks"); ok {
		items, err := p.items("tracks")
		if err != nil {
			return nil, err
		}
		a.tracks = items
		a.hasTracks = true
	}

	return a, nil
}

// Summary reports whether the album was built from the library summary
// shape and has not been resolved yet.
func (a *Album) Summary() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shape == albumShapeSummary
}

// Resolve upgrades the album to its full record. It issues one lookup when
// the track list is missing and is a no-op afterwards.
func (a *Album) Resolve(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolve(ctx)
}

func (a *Album) resolve(ctx context.Context) error {
	if a.hasTracks {
		return nil
	}

	full, err := a.client.lookupOne(ctx, a.ID, "albumList")
	if err != nil {
		return err
	}
	if err := a.load(full); err != nil {
		return err
	}
	if !a.hasTracks {
		return full.mismatch("tracks")
	}
	return nil
}

// Tracks returns the tracks that make up the album, resolving the album
// first if only a summary is known.
func (a *Album) Tracks(ctx context.Context) ([]*Track, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.resolve(ctx); err != nil {
		return nil, err
	}
	return newTracks(a.client, a.tracks)
}
