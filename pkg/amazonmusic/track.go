package amazonmusic

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// IdentifierTypeASIN is the identifier kind used when a track payload does
// not say otherwise.
const IdentifierTypeASIN = "ASIN"

const (
	streamEndpoint = "dmls/"
	streamTarget   = "com.amazon.digitalmusiclocator.DigitalMusicLocatorServiceExternal.getRestrictedStreamingURL"

	statusMaxConcurrency = "MAX_CONCURRENCY_REACHED"
)

// Track is an individual track. Tracks are produced by albums, playlists
// and stations; they are never created directly.
type Track struct {
	Identifier     string
	IdentifierType string
	Name           string
	Artist         string
	Album          string
	AlbumArtist    string
	CoverURL       string        // Empty when no artwork is known
	Duration       time.Duration // Zero when unknown
	Raw            json.RawMessage

	mu        sync.Mutex // Guards streamURL
	client    *Client
	streamURL string
}

// newTrack normalizes a track from the catalog lookup (muse) or station
// queue (mpqs) shape.
func newTrack(c *Client, data gjson.Result) (*Track, error) {
	p := payload{data}
	t := &Track{client: c, Raw: p.raw()}

	var err error
	if name, ok := p.firstString("name"); ok {
		t.Name = name
	} else if t.Name, err = p.requireString("title"); err != nil {
		return nil, err
	}

	if artist, ok := p.firstString("artistName"); ok {
		t.Artist = artist
	} else if t.Artist, err = p.requireString("artist.name"); err != nil {
		return nil, err
	}

	album, err := p.child("album")
	if err != nil {
		return nil, err
	}
	t.Album, _ = album.firstString("name", "title")
	if albumArtist, ok := album.firstString("artistName", "albumArtistName"); ok {
		t.AlbumArtist = albumArtist
	} else {
		t.AlbumArtist = t.Artist
	}

	if art, ok := p.optional("artUrlMap"); ok {
		t.CoverURL, _ = payload{art}.firstString("FULL", "LARGE")
	} else if image, ok := album.optional("image"); ok {
		t.CoverURL = image.String()
	}

	if t.IdentifierType, t.Identifier, err = trackIdentity(p); err != nil {
		return nil, err
	}

	if d, ok := p.optional("durationInSeconds"); ok {
		t.Duration = time.Duration(d.Int()) * time.Second
	} else if d, ok := p.optional("duration"); ok {
		t.Duration = time.Duration(d.Int()) * time.Second
	}

	return t, nil
}

// trackIdentity resolves the two identity variants: queue payloads carry
// an explicit identifierType/identifier pair, catalog payloads only an asin.
func trackIdentity(p payload) (kind, id string, err error) {
	if v, ok := p.optional("identifierType"); ok {
		id, err = p.requireString("identifier")
		if err != nil {
			return "", "", err
		}
		return v.String(), id, nil
	}

	id, err = p.requireString("asin")
	if err != nil {
		return "", "", err
	}
	return IdentifierTypeASIN, id, nil
}

// newTracks normalizes every element of a track list.
func newTracks(c *Client, items []gjson.Result) ([]*Track, error) {
	tracks := make([]*Track, 0, len(items))
	for _, item := range items {
		t, err := newTrack(c, item)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

type deviceToken struct {
	DeviceTypeID string `json:"deviceTypeId"`
	DeviceID     string `json:"deviceId"`
}

type contentID struct {
	Identifier      string `json:"identifier"`
	IdentifierType  string `json:"identifierType"`
	BitRate         string `json:"bitRate"`
	ContentDuration *int64 `json:"contentDuration"`
}

type streamRequest struct {
	CustomerID     string            `json:"customerId"`
	DeviceToken    deviceToken       `json:"deviceToken"`
	AppMetadata    map[string]string `json:"appMetadata"`
	ClientMetadata map[string]string `json:"clientMetadata"`
	ContentID      contentID         `json:"contentId"`
}

// URL returns the URL of an M3U playlist that streams the track. The
// playlist lists ~10s segments, so a player that handles playlists
// seamlessly is needed.
//
// The URL is looked up once and memoized. Returns ErrConcurrencyLimit when
// the account is already streaming on too many devices.
func (t *Track) URL(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.streamURL != "" {
		return t.streamURL, nil
	}

	s := t.client.session
	req := streamRequest{
		CustomerID:     s.CustomerID,
		DeviceToken:    deviceToken{DeviceTypeID: s.DeviceType, DeviceID: s.DeviceID},
		AppMetadata:    map[string]string{"https": "true"},
		ClientMetadata: map[string]string{"clientId": "WebCP"},
		ContentID: contentID{
			Identifier:     t.Identifier,
			IdentifierType: t.IdentifierType,
			BitRate:        "HIGH",
		},
	}
	if t.Duration > 0 {
		secs := int64(t.Duration / time.Second)
		req.ContentID.ContentDuration = &secs
	}

	raw, err := t.client.Call(ctx, streamEndpoint, streamTarget, req)
	if err != nil {
		return "", err
	}

	p := parsePayload(raw)
	if p.Get("statusCode").String() == statusMaxConcurrency {
		return "", ErrConcurrencyLimit
	}

	u, err := p.requireString("contentResponse.urlList.0")
	if err != nil {
		return "", err
	}
	t.streamURL = u
	return u, nil
}
