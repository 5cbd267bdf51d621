package amazonmusic

import (
	"context"
	"fmt"
)

const (
	lookupEndpoint = "muse/legacy/lookup"
	lookupTarget   = "com.amazon.musicensembleservice.MusicEnsembleService.lookup"
)

var lookupFeatures = []string{
	"popularity",
	"expandTracklist",
	"trackLibraryAvailability",
	"collectionLibraryAvailability",
}

type customerInfo struct {
	DeviceID       string `json:"deviceId"`
	DeviceType     string `json:"deviceType"`
	MusicTerritory string `json:"musicTerritory"`
	CustomerID     string `json:"customerId"`
}

type lookupRequest struct {
	ASINs            []string     `json:"asins"`
	Features         []string     `json:"features"`
	RequestedContent Subscription `json:"requestedContent"`
	DeviceID         string       `json:"deviceId"`
	DeviceType       string       `json:"deviceType"`
	MusicTerritory   string       `json:"musicTerritory"`
	CustomerID       string       `json:"customerId"`
}

func (c *Client) customerInfo() customerInfo {
	return customerInfo{
		DeviceID:       c.session.DeviceID,
		DeviceType:     c.session.DeviceType,
		MusicTerritory: c.session.Territory,
		CustomerID:     c.session.CustomerID,
	}
}

// Station creates a station queue, for example "A2UW0MECRAWILL".
func (c *Client) Station(ctx context.Context, id string) (*Station, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: station id is required", ErrInvalidArgument)
	}

	raw, err := c.Call(ctx, createQueueEndpoint, createQueueTarget, createQueueRequest{
		Identifier:     id,
		IdentifierType: "STATION_KEY",
		CustomerInfo:   c.customerInfo(),
	})
	if err != nil {
		return nil, err
	}
	return newStation(c, id, parsePayload(raw).Result)
}

// Album looks up an album by ASIN, for example "B00J9AEZ7G".
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	p, err := c.lookupOne(ctx, id, "albumList")
	if err != nil {
		return nil, err
	}
	return newAlbum(c, p.Result)
}

// Playlist looks up a playlist by ASIN, for example "B075QGZDZ3".
func (c *Client) Playlist(ctx context.Context, id string) (*Playlist, error) {
	p, err := c.lookupOne(ctx, id, "playlistList")
	if err != nil {
		return nil, err
	}
	return newPlaylist(c, p.Result)
}

// lookupOne runs a catalog lookup for one ASIN and returns the first
// element of the named result list.
func (c *Client) lookupOne(ctx context.Context, id, list string) (payload, error) {
	if id == "" {
		return payload{}, fmt.Errorf("%w: asin is required", ErrInvalidArgument)
	}

	raw, err := c.Call(ctx, lookupEndpoint, lookupTarget, lookupRequest{
		ASINs:            []string{id},
		Features:         lookupFeatures,
		RequestedContent: c.session.Subscription,
		DeviceID:         c.session.DeviceID,
		DeviceType:       c.session.DeviceType,
		MusicTerritory:   c.session.Territory,
		CustomerID:       c.session.CustomerID,
	})
	if err != nil {
		return payload{}, err
	}

	return parsePayload(raw).child(list + ".0")
}
