package amazonmusic

import (
	"context"
	"encoding/json"

	"github.com/tidwall/gjson"
)

const (
	createQueueEndpoint = "mpqs/voiceenabled/createQueue"
	createQueueTarget   = "com.amazon.musicplayqueueservice.model.client.external.voiceenabled.MusicPlayQueueServiceExternalVoiceEnabledClient.createQueue"

	nextTracksEndpoint = "mpqs/voiceenabled/getNextTracks"
	nextTracksTarget   = "com.amazon.musicplayqueueservice.model.client.external.voiceenabled.MusicPlayQueueServiceExternalVoiceEnabledClient.getNextTracks"

	// stationPageSize is how many tracks each getNextTracks call asks for.
	stationPageSize = 10
)

// Station is an effectively endless, ordered stream of tracks.
type Station struct {
	ID       string
	Name     string
	CoverURL string
	Raw      json.RawMessage

	client    *Client
	initial   []*Track
	pageToken string
}

type createQueueRequest struct {
	Identifier     string       `json:"identifier"`
	IdentifierType string       `json:"identifierType"`
	CustomerInfo   customerInfo `json:"customerInfo"`
}

type nextTracksRequest struct {
	PageToken      string       `json:"pageToken"`
	NumberOfTracks int          `json:"numberOfTracks"`
	CustomerInfo   customerInfo `json:"customerInfo"`
}

func newStation(c *Client, id string, data gjson.Result) (*Station, error) {
	p := payload{data}
	s := &Station{ID: id, Raw: p.raw(), client: c}

	var err error
	if s.CoverURL, err = p.requireString("queue.queueMetadata.imageUrlMap.FULL"); err != nil {
		return nil, err
	}
	if s.Name, err = p.requireString("queue.queueMetadata.title"); err != nil {
		return nil, err
	}
	if token, ok := p.optional("queue.pageToken"); ok {
		s.pageToken = token.String()
	}

	items, err := p.items("trackMetadataList")
	if err != nil {
		return nil, err
	}
	if s.initial, err = newTracks(c, items); err != nil {
		return nil, err
	}

	return s, nil
}

// Tracks returns a pager over the station's queue. It starts with the
// batch returned when the station was created and asks for more tracks
// whenever the batch runs out. Every call starts a new pager from that
// first batch; later pages are live and may differ between iterations.
func (s *Station) Tracks() *Pager[*Track] {
	return newSeededPager(s.initial, s.pageToken, s.nextTracks)
}

// nextTracks fetches the next queue page and remembers its token.
func (s *Station) nextTracks(ctx context.Context, cursor string) ([]*Track, string, error) {
	raw, err := s.client.Call(ctx, nextTracksEndpoint, nextTracksTarget, nextTracksRequest{
		PageToken:      cursor,
		NumberOfTracks: stationPageSize,
		CustomerInfo:   s.client.customerInfo(),
	})
	if err != nil {
		return nil, "", err
	}

	p := parsePayload(raw)
	items, err := p.items("trackMetadataList")
	if err != nil {
		return nil, "", err
	}
	tracks, err := newTracks(s.client, items)
	if err != nil {
		return nil, "", err
	}

	next := ""
	if token, ok := p.optional("nextPageToken"); ok {
		next = token.String()
	}
	s.pageToken = next
	return tracks, next, nil
}
