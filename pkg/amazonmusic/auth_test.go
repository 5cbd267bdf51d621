package amazonmusic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const sessionCookie = "session-token"

// fakeAmazon scripts the sign-in redirect loop of the web player.
type fakeAmazon struct {
	t      *testing.T
	server *httptest.Server

	// signInSteps is how many sign-in pages are chained before the session
	// cookie is issued. Zero means the visitor is already signed in.
	signInSteps int
	// unrecognized is how many home page loads report an unbound customer.
	unrecognized int
	// captcha answers every submission with a challenge page.
	captcha bool

	mu          sync.Mutex
	submissions []url.Values
	referers    []string
	forced      int
	paths       []string
}

func newFakeAmazon(t *testing.T) *fakeAmazon {
	t.Helper()
	f := &fakeAmazon{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/", f.home)
	mux.HandleFunc("/regional/", f.home)
	mux.HandleFunc(signInPath, f.signInPage)
	mux.HandleFunc(signInPath+"/submit", f.submit)
	mux.HandleFunc(forceSignInPath, f.forceSignIn)

	f.server = httptest.NewTLSServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAmazon) config() Config {
	return Config{
		HTTPClient: f.server.Client(),
		EntryURL:   f.server.URL,
	}
}

func (f *fakeAmazon) signedIn(r *http.Request) bool {
	if f.signInSteps == 0 {
		return true
	}
	_, err := r.Cookie(sessionCookie)
	return err == nil
}

func (f *fakeAmazon) home(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path)

	if !f.signedIn(r) {
		http.Redirect(w, r, signInPath+"?step=1", http.StatusFound)
		return
	}

	recognized := 1
	if f.unrecognized > 0 {
		f.unrecognized--
		recognized = 0
	}
	fmt.Fprintf(w, "<html><head><script>\nvar amznMusic = window.amznMusic || {};\namznMusic.appConfig = %s;\n</script></head><body></body></html>",
		appConfigJSON(strings.TrimPrefix(f.server.URL, "https://"), recognized))
}

func (f *fakeAmazon) signInPage(w http.ResponseWriter, r *http.Request) {
	step := r.URL.Query().Get("step")
	fmt.Fprintf(w, `<html><body>
<form name="signIn" method="post" action="signin/submit">
  <input type="hidden" name="appActionToken" value="token-%s">
  <input type="hidden" name="step" value="%s">
  <input type="email" name="email">
  <input type="password" name="password">
  <input type="submit">
</form>
</body></html>`, step, step)
}

func (f *fakeAmazon) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		f.t.Errorf("expected POST to sign-in form, got %s", r.Method)
	}
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("failed to parse sign-in form: %v", err)
		return
	}

	f.mu.Lock()
	f.submissions = append(f.submissions, r.PostForm)
	f.referers = append(f.referers, r.Header.Get("Referer"))
	f.mu.Unlock()

	if f.captcha {
		fmt.Fprint(w, `<html><body><form action="/errors/validateCaptcha"><input type="text" name="field-keywords"></form></body></html>`)
		return
	}

	step, _ := strconv.Atoi(r.PostForm.Get("step"))
	if step < f.signInSteps {
		http.Redirect(w, r, fmt.Sprintf("%s?step=%d", signInPath, step+1), http.StatusFound)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "signed-in", Path: "/"})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (f *fakeAmazon) forceSignIn(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.forced++
	f.mu.Unlock()
	http.Redirect(w, r, "/", http.StatusFound)
}

// appConfigJSON renders the configuration blob on a single line, the way
// the web player emits it.
func appConfigJSON(server string, recognized int) string {
	return fmt.Sprintf(`{"deviceId":"device-1","deviceType":"A16ZV8BU3SN1N3","customerId":"customer-1",`+
		`"musicTerritory":"US","realm":"USAmazon","isRecognizedCustomer":%d,"i18n":{"locale":"en_US"},`+
		`"CSRFTokenConfig":{"csrf_token":"csrf-token","csrf_ts":"1700000000","csrf_rnd":"12345"},`+
		`"serverInfo":{"returnUrlServer":%q}}`, recognized, server)
}

func TestNewSession_SignInRedirects(t *testing.T) {
	fake := newFakeAmazon(t)
	fake.signInSteps = 2

	password := []byte("hunter2")
	credentialCalls := 0
	cookies := NewMemoryCookieStore()

	cfg := fake.config()
	cfg.Cookies = cookies
	cfg.Credentials = func(ctx context.Context) (Credentials, error) {
		credentialCalls++
		return Credentials{Email: "user@example.com", Password: password}, nil
	}

	client, err := NewSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.submissions) != 2 {
		t.Fatalf("expected exactly 2 sign-in submissions, got %d", len(fake.submissions))
	}
	for i, form := range fake.submissions {
		if form.Get("email") != "user@example.com" || form.Get("password") != "hunter2" {
			t.Errorf("submission %d: unexpected credentials %v", i, form)
		}
		if want := fmt.Sprintf("token-%d", i+1); form.Get("appActionToken") != want {
			t.Errorf("submission %d: expected hidden token %q, got %q", i, want, form.Get("appActionToken"))
		}
		if want := fmt.Sprintf("%s%s?step=%d", fake.server.URL, signInPath, i+1); fake.referers[i] != want {
			t.Errorf("submission %d: expected referer %q, got %q", i, want, fake.referers[i])
		}
	}
	if credentialCalls != 1 {
		t.Errorf("expected credentials to be requested once, got %d", credentialCalls)
	}

	session := client.Session()
	if session.BaseURL != fake.server.URL {
		t.Errorf("expected base url %q, got %q", fake.server.URL, session.BaseURL)
	}
	if session.Region != "NA" || session.Territory != "US" || session.Locale != "en_US" {
		t.Errorf("unexpected session: %+v", session)
	}
	if session.CSRF != (CSRFToken{Token: "csrf-token", Timestamp: "1700000000", Random: "12345"}) {
		t.Errorf("unexpected csrf token: %+v", session.CSRF)
	}
	if session.Subscription != SubscriptionPrime {
		t.Errorf("expected default subscription PRIME, got %q", session.Subscription)
	}

	if region, _ := cookies.Get(regionCookieName); region != fake.server.URL {
		t.Errorf("expected region cookie %q, got %q", fake.server.URL, region)
	}
	// Home page, two submissions and the final region update.
	if cookies.Saves() != 4 {
		t.Errorf("expected 4 cookie saves, got %d", cookies.Saves())
	}
}

func TestNewSession_WipesCredentials(t *testing.T) {
	fake := newFakeAmazon(t)
	fake.signInSteps = 1

	password := []byte("hunter2")
	cfg := fake.config()
	cfg.Credentials = func(ctx context.Context) (Credentials, error) {
		return Credentials{Email: "user@example.com", Password: password}, nil
	}

	client, err := NewSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, b := range password {
		if b != 0 {
			t.Fatalf("expected password byte %d to be wiped, got %q", i, b)
		}
	}
	if state := fmt.Sprintf("%+v %+v", client, client.Session()); strings.Contains(state, "hunter2") || strings.Contains(state, "user@example.com") {
		t.Errorf("expected no credentials in client state, got %s", state)
	}
}

func TestNewSession_WipesCredentialsOnFailure(t *testing.T) {
	fake := newFakeAmazon(t)
	fake.signInSteps = 1
	fake.captcha = true

	password := []byte("hunter2")
	cfg := fake.config()
	cfg.Credentials = func(ctx context.Context) (Credentials, error) {
		return Credentials{Email: "user@example.com", Password: password}, nil
	}

	_, err := NewSession(context.Background(), cfg)
	if !errors.Is(err, ErrAuthenticationUnresolved) {
		t.Fatalf("expected ErrAuthenticationUnresolved, got %v", err)
	}
	if len(fake.submissions) != 1 {
		t.Errorf("expected one submission before the captcha, got %d", len(fake.submissions))
	}
	if string(password) != strings.Repeat("\x00", len("hunter2")) {
		t.Errorf("expected password to be wiped, got %q", password)
	}
}

func TestNewSession_ReusesCookies(t *testing.T) {
	fake := newFakeAmazon(t)

	cfg := fake.config()
	cfg.Subscription = SubscriptionMusic
	cfg.Credentials = func(ctx context.Context) (Credentials, error) {
		t.Error("credentials requested for a signed-in visitor")
		return Credentials{}, nil
	}

	client, err := NewSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.submissions) != 0 {
		t.Errorf("expected no submissions, got %d", len(fake.submissions))
	}
	if client.Session().Subscription != SubscriptionMusic {
		t.Errorf("expected MUSIC_SUBSCRIPTION, got %q", client.Session().Subscription)
	}
}

func TestNewSession_UsesRegionCookie(t *testing.T) {
	fake := newFakeAmazon(t)

	cookies := NewMemoryCookieStore()
	cookies.Set(regionCookieName, fake.server.URL+"/regional/")

	cfg := fake.config()
	cfg.Cookies = cookies

	if _, err := NewSession(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.paths) == 0 || fake.paths[0] != "/regional/" {
		t.Errorf("expected first fetch of /regional/, got %v", fake.paths)
	}
}

func TestNewSession_ForceSignIn(t *testing.T) {
	tests := []struct {
		name         string
		unrecognized int
		wantForced   int
		wantErr      error
	}{
		{name: "recognized after one forced sign-in", unrecognized: 1, wantForced: 1},
		{name: "never recognized", unrecognized: 100, wantForced: maxForceSignIns, wantErr: ErrAuthenticationUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAmazon(t)
			fake.unrecognized = tt.unrecognized

			_, err := NewSession(context.Background(), fake.config())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if fake.forced != tt.wantForced {
				t.Errorf("expected %d forced sign-ins, got %d", tt.wantForced, fake.forced)
			}
		})
	}
}

func TestNewSession_MissingCredentials(t *testing.T) {
	fake := newFakeAmazon(t)
	fake.signInSteps = 1

	_, err := NewSession(context.Background(), fake.config())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestNewSession_EndlessSignIn(t *testing.T) {
	fake := newFakeAmazon(t)
	fake.signInSteps = 1000

	cfg := fake.config()
	cfg.Credentials = StaticCredentials("user@example.com", "hunter2")

	_, err := NewSession(context.Background(), cfg)
	if !errors.Is(err, ErrAuthenticationUnresolved) {
		t.Fatalf("expected ErrAuthenticationUnresolved, got %v", err)
	}
	if len(fake.submissions) != maxSignInSubmissions {
		t.Errorf("expected %d submissions, got %d", maxSignInSubmissions, len(fake.submissions))
	}
}

func TestNewSession_InvalidSubscription(t *testing.T) {
	_, err := NewSession(context.Background(), Config{Subscription: "FREE"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseSignInForm(t *testing.T) {
	pageURL, _ := url.Parse("https://www.amazon.com/ap/signin?openid.return_to=x")
	p := &page{
		URL: pageURL,
		Body: []byte(`<html><body>
<form name="signIn" method="post" action=" /ap/signin/submit ">
  <input type="HIDDEN" name="appActionToken" value="abc">
  <input type="hidden" name="metadata1" value="">
  <input type="hidden" value="nameless">
  <input type="email" name="email" value="prefilled">
</form>
<form action="/other"><input type="hidden" name="other" value="1"></form>
</body></html>`),
	}

	form, err := parseSignInForm(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Action.String() != "https://www.amazon.com/ap/signin/submit" {
		t.Errorf("expected resolved action, got %q", form.Action)
	}

	want := []formField{{Name: "appActionToken", Value: "abc"}, {Name: "metadata1", Value: ""}}
	if len(form.Hidden) != len(want) {
		t.Fatalf("expected %d hidden fields, got %+v", len(want), form.Hidden)
	}
	for i := range want {
		if form.Hidden[i] != want[i] {
			t.Errorf("hidden field %d: expected %+v, got %+v", i, want[i], form.Hidden[i])
		}
	}
}

func TestParseSignInForm_NoForm(t *testing.T) {
	pageURL, _ := url.Parse("https://www.amazon.com/ap/signin")
	_, err := parseSignInForm(&page{URL: pageURL, Body: []byte("<html><body>nothing</body></html>")})
	if !errors.Is(err, ErrAuthenticationUnresolved) {
		t.Fatalf("expected ErrAuthenticationUnresolved, got %v", err)
	}
}

func TestParseAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "config line",
			body: "<script>\n  amznMusic.appConfig = " + appConfigJSON("music.amazon.com", 1) + ";\n</script>",
		},
		{
			name:    "captcha page",
			body:    "<html><body>Type the characters you see in this image</body></html>",
			wantErr: ErrAuthenticationUnresolved,
		},
		{
			name:    "missing recognition flag",
			body:    `amznMusic.appConfig = {"deviceId":"d"};`,
			wantErr: &SchemaMismatchError{Field: "isRecognizedCustomer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseAppConfig([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cfg.recognized() {
				t.Error("expected recognized customer")
			}
		})
	}
}

func TestParseAppConfig_InvalidJSON(t *testing.T) {
	_, err := parseAppConfig([]byte(`amznMusic.appConfig = {"deviceId": ;`))
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestAppConfigSession_MissingField(t *testing.T) {
	cfg, err := parseAppConfig([]byte(`amznMusic.appConfig = {"isRecognizedCustomer":1,"deviceId":"d"};`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = cfg.session()
	if !errors.Is(err, &SchemaMismatchError{Field: "CSRFTokenConfig.csrf_token"}) {
		t.Fatalf("expected csrf token schema mismatch, got %v", err)
	}
}

func TestPageSignInRedirect(t *testing.T) {
	signIn, _ := url.Parse("https://www.amazon.com/ap/signin?openid.return_to=x")
	home, _ := url.Parse("https://music.amazon.com/")

	tests := []struct {
		name    string
		history []redirect
		want    bool
	}{
		{"no redirects", nil, false},
		{"302 to sign-in", []redirect{{StatusCode: http.StatusFound, Location: signIn}}, true},
		{"302 to sign-in after another hop", []redirect{
			{StatusCode: http.StatusMovedPermanently, Location: home},
			{StatusCode: http.StatusFound, Location: signIn},
		}, true},
		{"301 to sign-in", []redirect{{StatusCode: http.StatusMovedPermanently, Location: signIn}}, false},
		{"303 to sign-in", []redirect{{StatusCode: http.StatusSeeOther, Location: signIn}}, false},
		{"302 elsewhere", []redirect{{StatusCode: http.StatusFound, Location: home}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &page{History: tt.history}
			if got := p.signInRedirect(); got != tt.want {
				t.Errorf("signInRedirect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegionForRealm(t *testing.T) {
	tests := []struct {
		realm string
		want  string
	}{
		{"USAmazon", "NA"},
		{"EUAmazon", "EU"},
		{"FEAmazon", "FE"},
		{"JPAmazon", "JP"},
		{"X", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.realm, func(t *testing.T) {
			if got := regionForRealm(tt.realm); got != tt.want {
				t.Errorf("regionForRealm(%q) = %q, want %q", tt.realm, got, tt.want)
			}
		})
	}
}
