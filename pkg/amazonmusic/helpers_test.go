package amazonmusic

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"
)

// newTestClient returns a signed-in client whose API calls go to handler.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *MemoryCookieStore) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cookies := NewMemoryCookieStore()
	hc := *server.Client()
	hc.Jar = cookies

	return &Client{
		httpClient: &hc,
		cookies:    cookies,
		entryURL:   server.URL,
		session: Session{
			DeviceID:     "device-1",
			DeviceType:   "A16ZV8BU3SN1N3",
			CustomerID:   "customer-1",
			Territory:    "US",
			Locale:       "en_US",
			Region:       "NA",
			BaseURL:      server.URL,
			CSRF:         CSRFToken{Token: "csrf-token", Timestamp: "1700000000", Random: "12345"},
			Subscription: SubscriptionPrime,
		},
	}, cookies
}

// decodeBody reads a JSON request body into a gjson result. It is called
// from handler goroutines, so failures are reported with Errorf.
func decodeBody(t *testing.T, r *http.Request) gjson.Result {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("failed to read request body: %v", err)
	}
	if !json.Valid(data) {
		t.Errorf("request body is not JSON: %s", data)
	}
	return gjson.ParseBytes(data)
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("failed to write response body: %v", err)
	}
}

func mustTrack(t *testing.T, data string) *Track {
	t.Helper()
	track, err := newTrack(nil, gjson.Parse(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return track
}
