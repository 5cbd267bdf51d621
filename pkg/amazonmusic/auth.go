package amazonmusic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	signInPath      = "/ap/signin"
	forceSignInPath = "/gp/dmusic/cloudplayer/forceSignIn"

	// maxSignInSubmissions bounds the redirect loop. Amazon may chain a few
	// pages (email, password, OTP) but never this many.
	maxSignInSubmissions = 10
	// maxForceSignIns bounds how often an unrecognized customer is re-bound.
	maxForceSignIns = 3
	// maxRedirects mirrors the net/http default.
	maxRedirects = 10
)

// redirect is one hop of a followed redirect chain.
type redirect struct {
	StatusCode int
	Location   *url.URL
}

// page is a fetched HTML document together with the redirects followed to
// reach it.
type page struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
	History    []redirect
}

// signInRedirect reports whether any 302 hop of the chain landed on the
// sign-in page.
func (p *page) signInRedirect() bool {
	for _, r := range p.History {
		if r.StatusCode == http.StatusFound && r.Location != nil && strings.Contains(r.Location.Path, signInPath) {
			return true
		}
	}
	return false
}

// signInFlow drives the authentication state machine:
//
//	Init -> HomeFetched -> (SignInRedirectLoop)* -> ConfigParsed -> Ready
//	                                                 \-> ForceSignInRetry -> ConfigParsed
//
// ConfigParsed without a configuration blob ends in ErrAuthenticationUnresolved.
type signInFlow struct {
	client      *Client
	credentials CredentialsFunc
	secret      *secret
	submissions int
}

// run executes the flow and returns the parsed web player configuration.
func (f *signInFlow) run(ctx context.Context) (*appConfig, error) {
	c := f.client

	// Init: the region cookie points at the regional player from the last
	// run, or at the top-level entry point on first use.
	target, ok := c.cookies.Get(regionCookieName)
	if !ok || target == "" {
		target = c.entryURL
		c.cookies.Set(regionCookieName, target)
	}

	c.logDebugf("amazonmusic: fetching %s", target)
	p, err := c.fetch(ctx, http.MethodGet, target, nil, browserHeaders())
	if err != nil {
		return nil, err
	}
	if err := c.cookies.Save(ctx); err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to save cookies: %w", err)
	}

	for forced := 0; ; forced++ {
		for p.signInRedirect() {
			if f.submissions >= maxSignInSubmissions {
				return nil, fmt.Errorf("%w: still redirected to sign-in after %d submissions", ErrAuthenticationUnresolved, f.submissions)
			}
			p, err = f.authenticate(ctx, p)
			if err != nil {
				return nil, err
			}
		}

		cfg, err := parseAppConfig(p.Body)
		if err != nil {
			return nil, err
		}
		if cfg.recognized() {
			return cfg, nil
		}

		// The cookies are valid but the account binding has to be confirmed.
		if forced >= maxForceSignIns {
			return nil, fmt.Errorf("%w: customer not recognized after %d forced sign-ins", ErrAuthenticationUnresolved, forced)
		}
		c.logDebugf("amazonmusic: customer not recognized, forcing sign-in")
		p, err = c.fetch(ctx, http.MethodGet, c.entryURL+forceSignInPath, nil, browserHeaders())
		if err != nil {
			return nil, err
		}
		if err := c.cookies.Save(ctx); err != nil {
			return nil, fmt.Errorf("amazonmusic: failed to save cookies: %w", err)
		}
	}
}

// authenticate submits the sign-in form found on p.
func (f *signInFlow) authenticate(ctx context.Context, p *page) (*page, error) {
	c := f.client

	form, err := parseSignInForm(p)
	if err != nil {
		return nil, err
	}

	s, err := f.loadSecret(ctx)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("email", s.email)
	values.Set("password", string(s.password))
	// Hidden fields carry CSRF data and per-step state; forward them all.
	for _, field := range form.Hidden {
		values.Set(field.Name, field.Value)
	}

	header := browserHeaders()
	header.Set("Referer", p.History[0].Location.String())
	header.Set("Upgrade-Insecure-Requests", "1")
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	f.submissions++
	c.logDebugf("amazonmusic: submitting sign-in form to %s (attempt %d)", form.Action, f.submissions)

	next, err := c.fetch(ctx, http.MethodPost, form.Action.String(), strings.NewReader(values.Encode()), header)
	if err != nil {
		return nil, err
	}
	if err := c.cookies.Save(ctx); err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to save cookies: %w", err)
	}
	return next, nil
}

// loadSecret requests credentials the first time they are needed.
func (f *signInFlow) loadSecret(ctx context.Context) (*secret, error) {
	if f.secret != nil {
		return f.secret, nil
	}
	if f.credentials == nil {
		return nil, ErrMissingCredentials
	}
	creds, err := f.credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to read credentials: %w", err)
	}
	f.secret = newSecret(creds)
	return f.secret, nil
}

// wipe erases any credentials held by the flow.
func (f *signInFlow) wipe() {
	f.secret.wipe()
	f.secret = nil
	f.credentials = nil
}

// fetch performs a browser-like request and records the redirect chain.
func (c *Client) fetch(ctx context.Context, method, target string, body io.Reader, header http.Header) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to create request: %w", err)
	}
	req.Header = header

	var history []redirect
	hc := *c.httpClient
	hc.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errors.New("stopped after 10 redirects")
		}
		status := 0
		if next.Response != nil {
			status = next.Response.StatusCode
		}
		history = append(history, redirect{StatusCode: status, Location: next.URL})
		return nil
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to read response: %w", err)
	}

	return &page{
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode,
		Body:       data,
		History:    history,
	}, nil
}

func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	return h
}
