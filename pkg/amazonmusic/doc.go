// Package amazonmusic provides a client library for the Amazon Music web
// player's internal API.
//
// # Overview
//
// Amazon Music has no public API. The web player talks to RPC-style JSON
// endpoints that need a signed-in browser session, a per-account regional
// host and a CSRF triple. This package reproduces that session and turns the
// responses into a small set of types: Track, Album, Playlist and Station.
//
// # Installation
//
//	go get github.com/jfmyers9/amzn/pkg/amazonmusic
//
// # Signing In
//
// NewSession loads cookies from the configured CookieStore, opens the web
// player and follows Amazon's sign-in redirects, submitting the sign-in form
// as many times as Amazon asks. Credentials are requested lazily, so a run
// with valid cookies never needs them:
//
//	client, err := amazonmusic.NewSession(ctx, amazonmusic.Config{
//	    Credentials: func(ctx context.Context) (amazonmusic.Credentials, error) {
//	        return amazonmusic.Credentials{Email: email, Password: promptPassword()}, nil
//	    },
//	    Cookies: store,
//	})
//
// The password bytes are zeroed once NewSession returns and the Client keeps
// no reference to them.
//
// If Amazon shows a CAPTCHA or another challenge, the web player
// configuration never appears and NewSession returns
// ErrAuthenticationUnresolved. Sign in with a browser and retry.
//
// # Catalog
//
//	album, err := client.Album(ctx, "B00J9AEZ7G")
//	tracks, err := album.Tracks(ctx)
//	for _, t := range tracks {
//	    u, err := t.URL(ctx)
//	    ...
//	}
//
// Playlists come with their tracks. Stations and the library are paged:
//
//	pager := client.AlbumsInLibrary()
//	for album, err := range pager.All(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(album.Name)
//	}
//
// # Error Handling
//
// Upstream payloads change without notice. A missing required field is
// reported as a *SchemaMismatchError carrying the offending JSON:
//
//	var mismatch *amazonmusic.SchemaMismatchError
//	if errors.As(err, &mismatch) {
//	    log.Printf("field %s missing from %s", mismatch.Field, mismatch.Payload)
//	}
//
// Track.URL returns ErrConcurrencyLimit when the account is streaming on too
// many devices. Transport errors are wrapped and returned; the package never
// retries. Configure retries on the *http.Client passed in Config.
package amazonmusic
