package amazonmusic

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// regionCookieName is the cookie that remembers the account's regional
// web player between runs. It is stored alongside the HTTP cookies but is
// never sent to Amazon.
const regionCookieName = "_AmazonMusic-targetUrl"

// CookieStore is the cookie jar used by a session. Besides the HTTP cookies
// it holds local values (such as the discovered regional base URL) that
// survive restarts but are never sent over the wire.
//
// Save is called after every state-changing step: after each sign-in
// submission, after sign-in completes and after every API call.
type CookieStore interface {
	http.CookieJar

	// Get returns a local value by name.
	Get(name string) (string, bool)
	// Set stores a local value.
	Set(name, value string)
	// Save persists the store.
	Save(ctx context.Context) error
}

// MemoryCookieStore is a CookieStore that keeps everything in memory.
type MemoryCookieStore struct {
	jar *cookiejar.Jar

	mu     sync.Mutex
	values map[string]string
	saves  int
}

// NewMemoryCookieStore creates an empty in-memory cookie store.
func NewMemoryCookieStore() *MemoryCookieStore {
	// cookiejar.New only fails on invalid options.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &MemoryCookieStore{
		jar:    jar,
		values: make(map[string]string),
	}
}

// SetCookies implements http.CookieJar.
func (m *MemoryCookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	m.jar.SetCookies(u, cookies)
}

// Cookies implements http.CookieJar.
func (m *MemoryCookieStore) Cookies(u *url.URL) []*http.Cookie {
	return m.jar.Cookies(u)
}

// Get returns a local value by name.
func (m *MemoryCookieStore) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok
}

// Set stores a local value.
func (m *MemoryCookieStore) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Save only counts invocations; there is nothing to persist.
func (m *MemoryCookieStore) Save(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryCookieStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
