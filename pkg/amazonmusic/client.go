package amazonmusic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Subscription selects the catalog tier requested on lookups.
type Subscription string

const (
	// SubscriptionPrime requests content available to Prime members.
	SubscriptionPrime Subscription = "PRIME"
	// SubscriptionMusic requests content available to Amazon Music Unlimited.
	SubscriptionMusic Subscription = "MUSIC_SUBSCRIPTION"
)

const (
	// DefaultEntryURL is the top-level web player URL used before the
	// account's region is known.
	DefaultEntryURL = "https://music.amazon.com"

	userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:57.0) Gecko/20100101 Firefox/57.0"
)

// Config holds client configuration.
type Config struct {
	Credentials  CredentialsFunc // Optional: invoked only when a sign-in form must be submitted
	Cookies      CookieStore     // Optional: cookie persistence (defaults to an in-memory store)
	Subscription Subscription    // Optional: catalog tier (defaults to SubscriptionPrime)
	HTTPClient   *http.Client    // Optional: HTTP client (defaults to http.DefaultClient)
	EntryURL     string          // Optional: web player entry point (defaults to DefaultEntryURL, used for testing)
	Logger       Logger          // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// CSRFToken is the token/timestamp/random triple attached to every call.
type CSRFToken struct {
	Token     string
	Timestamp string
	Random    string
}

// Session is the state discovered while signing in. It never contains
// credentials.
type Session struct {
	DeviceID     string
	DeviceType   string
	CustomerID   string
	Territory    string
	Locale       string
	Region       string // Region code used in API paths, e.g. "NA"
	BaseURL      string // Regional web player, e.g. "https://music.amazon.com"
	CSRF         CSRFToken
	Subscription Subscription
}

// Client is an authenticated Amazon Music session. It is only handed out by
// NewSession once sign-in has completed.
//
// Calls are serialized: the cookie store is the one shared mutable resource
// and every call writes it.
type Client struct {
	mu         sync.Mutex
	httpClient *http.Client
	cookies    CookieStore
	entryURL   string
	logger     Logger
	session    Session
}

// NewSession signs in to Amazon Music and returns a ready client.
//
// Cookies from a previous run are reused, so credentials are only requested
// when Amazon redirects to its sign-in page. Returns ErrAuthenticationUnresolved
// when the web player configuration cannot be found after signing in.
func NewSession(ctx context.Context, cfg Config) (*Client, error) {
	subscription := cfg.Subscription
	switch subscription {
	case "":
		subscription = SubscriptionPrime
	case SubscriptionPrime, SubscriptionMusic:
	default:
		return nil, fmt.Errorf("%w: unknown subscription %q", ErrInvalidConfig, subscription)
	}

	cookies := cfg.Cookies
	if cookies == nil {
		cookies = NewMemoryCookieStore()
	}

	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	httpClient := *base
	httpClient.Jar = cookies

	entryURL := strings.TrimRight(cfg.EntryURL, "/")
	if entryURL == "" {
		entryURL = DefaultEntryURL
	}

	c := &Client{
		httpClient: &httpClient,
		cookies:    cookies,
		entryURL:   entryURL,
		logger:     cfg.Logger,
	}

	flow := &signInFlow{client: c, credentials: cfg.Credentials}
	defer flow.wipe()

	appCfg, err := flow.run(ctx)
	if err != nil {
		return nil, err
	}

	session, err := appCfg.session()
	if err != nil {
		return nil, err
	}
	session.Subscription = subscription
	c.session = session

	// The region cookie remembers the regional player for the next run.
	c.cookies.Set(regionCookieName, session.BaseURL)
	if err := c.cookies.Save(ctx); err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to save cookies: %w", err)
	}

	c.logDebugf("amazonmusic: signed in (region %s, territory %s)", session.Region, session.Territory)
	return c, nil
}

// Session returns a copy of the discovered session state.
func (c *Client) Session() Session {
	return c.session
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
