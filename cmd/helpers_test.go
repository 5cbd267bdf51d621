package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/jfmyers9/amzn/internal/config"
	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

const (
	lookupTarget     = "com.amazon.musicensembleservice.MusicEnsembleService.lookup"
	streamTarget     = "com.amazon.digitalmusiclocator.DigitalMusicLocatorServiceExternal.getRestrictedStreamingURL"
	searchTarget     = "com.amazon.tenzing.v1_1.TenzingServiceExternalV1_1.search"
	createQueueField = "createQueue"
	nextTracksField  = "getNextTracks"
)

const albumResponse = `{"albumList":[{
	"asin":"B00J9AEZ7G","image":"https://img/album.jpg","title":"Moon Safari",
	"artist":{"name":"Air"},"productDetails":{"primaryGenreName":"Electronic"},
	"reviews":{"average":4.5},"trackCount":2,"originalReleaseDate":885427200000,
	"tracks":[
		{"asin":"T1","title":"La femme d'argent","artist":{"name":"Air"},"album":{"title":"Moon Safari"},"duration":429},
		{"asin":"T2","title":"Sexy Boy","artist":{"name":"Air"},"album":{"title":"Moon Safari"},"duration":298}
	]}]}`

const playlistResponse = `{"playlistList":[{
	"asin":"B075QGZDZ3","image":"https://img/pl.jpg","title":"Chill Out",
	"primaryGenre":"Pop","reviews":{"average":3.5},"trackCount":1,
	"tracks":[{"asin":"T9","title":"Playlist Song","artist":{"name":"Someone"},"album":{"title":"Other"},"duration":61}]}]}`

// fakeAmazon is a signed-in web player with a scripted API.
type fakeAmazon struct {
	t      *testing.T
	server *httptest.Server

	mu      sync.Mutex
	targets []string
	bodies  []gjson.Result
}

func newFakeAmazon(t *testing.T) *fakeAmazon {
	t.Helper()
	f := &fakeAmazon{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/", f.home)
	mux.HandleFunc("/NA/api/", f.api)

	f.server = httptest.NewTLSServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAmazon) home(w http.ResponseWriter, r *http.Request) {
	host := strings.TrimPrefix(f.server.URL, "https://")
	fmt.Fprintf(w, "<html><head><script>\namznMusic.appConfig = %s;\n</script></head></html>",
		`{"deviceId":"device-1","deviceType":"A16ZV8BU3SN1N3","customerId":"customer-1",`+
			`"musicTerritory":"US","realm":"USAmazon","isRecognizedCustomer":1,"i18n":{"locale":"en_US"},`+
			`"CSRFTokenConfig":{"csrf_token":"csrf-token","csrf_ts":"1700000000","csrf_rnd":"12345"},`+
			`"serverInfo":{"returnUrlServer":"`+host+`"}}`)
}

func (f *fakeAmazon) api(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get("X-Amz-Target")

	var body gjson.Result
	if target != "" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			f.t.Errorf("failed to read request body: %v", err)
			return
		}
		body = gjson.ParseBytes(data)
	} else if err := r.ParseForm(); err != nil {
		f.t.Errorf("failed to parse form: %v", err)
		return
	}

	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case target == lookupTarget && body.Get("asins.0").String() == "B075QGZDZ3":
		fmt.Fprint(w, playlistResponse)
	case target == lookupTarget:
		fmt.Fprint(w, albumResponse)
	case target == streamTarget:
		fmt.Fprintf(w, `{"contentResponse":{"urlList":["https://stream/%s.m3u8"]}}`, body.Get("contentId.identifier").String())
	case target == searchTarget:
		fmt.Fprint(w, `{"results":[{"label":"catalog_albums","hits":[{"document":{"title":"Moon Safari"}}]}]}`)
	case strings.HasSuffix(target, createQueueField):
		fmt.Fprint(w, `{"queue":{"pageToken":"P1","queueMetadata":{"title":"Air Radio","imageUrlMap":{"FULL":"https://img/st.jpg"}}},`+
			`"trackMetadataList":[`+queueTracks(1, 3)+`]}`)
	case strings.HasSuffix(target, nextTracksField):
		fmt.Fprint(w, `{"nextPageToken":"P2","trackMetadataList":[`+queueTracks(4, 10)+`]}`)
	case target == "" && r.PostForm.Get("Operation") == "searchLibrary":
		fmt.Fprint(w, `{"searchLibraryResponse":{"searchLibraryResult":{"nextResultsToken":null,"searchReturnItemList":[`+
			libraryAlbum("A1", "Moon Safari", 10)+`,`+libraryAlbum("A2", "Single", 1)+`,`+libraryAlbum("A3", "Talkie Walkie", 11)+`]}}}`)
	default:
		http.Error(w, `{"message":"unknown operation"}`, http.StatusBadRequest)
	}
}

func (f *fakeAmazon) calls(target string) []gjson.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gjson.Result
	for i, got := range f.targets {
		if got == target {
			out = append(out, f.bodies[i])
		}
	}
	return out
}

func queueTracks(from, to int) string {
	var items []string
	for i := from; i <= to; i++ {
		items = append(items, fmt.Sprintf(`{"identifierType":"ASIN","identifier":"S%d","name":"Station Song %d",`+
			`"artistName":"Air","album":{"name":"Radio"},"durationInSeconds":120}`, i, i))
	}
	return strings.Join(items, ",")
}

func libraryAlbum(asin, name string, tracks int) string {
	return fmt.Sprintf(`{"numTracks":%d,"metadata":{"albumAsin":%q,"albumCoverImageFull":"https://img/%s.jpg",`+
		`"albumName":%q,"albumArtistName":"Air","primaryGenre":"Electronic","primeStatus":"PRIME"}}`, tracks, asin, asin, name)
}

// useFakeAmazon points connect at the fake for the duration of the test.
func useFakeAmazon(t *testing.T, f *fakeAmazon) {
	t.Helper()

	original := connect
	t.Cleanup(func() { connect = original })

	connect = func(cmd *cobra.Command) (*session, error) {
		client, err := amazonmusic.NewSession(cmd.Context(), amazonmusic.Config{
			HTTPClient: f.server.Client(),
			EntryURL:   f.server.URL,
		})
		if err != nil {
			return nil, err
		}
		cfg := &config.Config{
			OutputWidth: 24,
			HTTP:        config.HTTPConfig{RetryMax: 0, TimeoutSeconds: 5, RequestsPerSecond: 100},
		}
		return &session{client: client, cfg: cfg, logger: zerolog.Nop()}, nil
	}
}

// runCommand invokes a command's RunE with captured output.
func runCommand(t *testing.T, run func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetContext(context.Background())

	err := run(cmd, args)
	return out.String(), err
}

// setFlag sets a flag variable for the duration of the test.
func setFlag[T any](t *testing.T, flag *T, value T) {
	t.Helper()
	original := *flag
	*flag = value
	t.Cleanup(func() { *flag = original })
}
