package amazonmusic

import (
	"context"
	"net/url"
	"strconv"
)

const (
	libraryEndpoint = "cirrus/"

	// libraryPageSize is the maxResults sent with each library search.
	libraryPageSize = 100
	// minLibraryTracks excludes singles and EPs from library listings.
	minLibraryTracks = 4
)

// librarySelectedColumns are the album columns requested from the library
// search, in the order the web player asks for them.
var librarySelectedColumns = []string{
	"albumArtistName",
	"albumName",
	"artistName",
	"objectId",
	"primaryGenre",
	"sortAlbumArtistName",
	"sortAlbumName",
	"sortArtistName",
	"albumCoverImageFull",
	"albumAsin",
	"artistAsin",
	"gracenoteId",
}

// AlbumsInLibrary lists the albums in the user's library.
//
// Amazon lists every album, including singles; only albums with at least
// four tracks and Prime availability are returned. The albums are
// summaries: use Album.Resolve or Album.Tracks to load the full record.
// Pages are fetched lazily, 100 albums at a time.
func (c *Client) AlbumsInLibrary() *Pager[*Album] {
	base := c.libraryQuery()
	return NewPager(func(ctx context.Context, cursor string) ([]*Album, string, error) {
		query := cloneValues(base)
		if cursor != "" {
			query.Set("nextResultsToken", cursor)
		}

		raw, err := c.Call(ctx, libraryEndpoint, "", query)
		if err != nil {
			return nil, "", err
		}

		result, err := parsePayload(raw).child("searchLibraryResponse.searchLibraryResult")
		if err != nil {
			return nil, "", err
		}
		items, err := result.items("searchReturnItemList")
		if err != nil {
			return nil, "", err
		}

		var albums []*Album
		for _, item := range items {
			p := payload{item}
			count, err := p.require("numTracks")
			if err != nil {
				return nil, "", err
			}
			if count.Int() < minLibraryTracks || p.Get("metadata.primeStatus").String() != string(SubscriptionPrime) {
				continue
			}

			album, err := newAlbum(c, item)
			if err != nil {
				return nil, "", err
			}
			albums = append(albums, album)
		}

		next := ""
		if token, ok := result.optional("nextResultsToken"); ok {
			next = token.String()
		}
		return albums, next, nil
	})
}

// libraryQuery builds the form for the legacy searchLibrary operation.
func (c *Client) libraryQuery() url.Values {
	q := url.Values{}
	q.Set("Operation", "searchLibrary")
	q.Set("ContentType", "JSON")
	q.Set("searchReturnType", "ALBUMS")
	q.Set("searchCriteria.member.1.attributeName", "status")
	q.Set("searchCriteria.member.1.comparisonType", "EQUALS")
	q.Set("searchCriteria.member.1.attributeValue", "AVAILABLE")
	q.Set("searchCriteria.member.2.attributeName", "trackStatus")
	q.Set("searchCriteria.member.2.comparisonType", "IS_NULL")
	q.Set("albumArtUrlsSizeList.member.1", "FULL")
	for i, column := range librarySelectedColumns {
		q.Set("selectedColumns.member."+strconv.Itoa(i+1), column)
	}
	q.Set("maxResults", strconv.Itoa(libraryPageSize))
	q.Set("caller", "getAllDataByMetaType")
	q.Set("sortCriteriaList.member.1.sortColumn", "sortAlbumName")
	q.Set("sortCriteriaList.member.1.sortType", "ASC")
	q.Set("customerInfo.customerId", c.session.CustomerID)
	q.Set("customerInfo.deviceId", c.session.DeviceID)
	q.Set("customerInfo.deviceType", c.session.DeviceType)
	return q
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
