// Package cookiestore persists the Amazon Music cookie jar in SQLite so a
// session survives restarts without signing in again.
package cookiestore

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	_ "modernc.org/sqlite"

	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

// FileName is the name of the cookie database in the default location.
const FileName = ".amzn.cookies"

// MemoryPath opens a store that is never written to disk.
const MemoryPath = ":memory:"

var _ amazonmusic.CookieStore = (*Store)(nil)

// Store is an amazonmusic.CookieStore backed by a SQLite database.
//
// Cookies are served from an in-memory jar; Save writes a snapshot of every
// cookie the jar has accepted, session cookies included. The database file
// is only readable by its owner.
type Store struct {
	db   *sql.DB
	path string
	jar  *cookiejar.Jar
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	values  map[string]string
}

// entry is one persisted cookie.
type entry struct {
	Domain   string
	Path     string
	Name     string
	Value    string
	HostOnly bool
	Secure   bool
	HTTPOnly bool
	Expires  time.Time // Zero for session cookies
}

func (e entry) key() string {
	return e.Domain + ";" + e.Path + ";" + e.Name
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

// Open opens or creates the cookie database at path and loads its cookies.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create cookie directory: %w", err)
		}
		// Create the file with owner-only permissions before SQLite touches it.
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie file: %w", err)
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database alive for the store's lifetime
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = FULL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			domain TEXT NOT NULL,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			host_only BOOLEAN NOT NULL DEFAULT 0,
			secure BOOLEAN NOT NULL DEFAULT 0,
			http_only BOOLEAN NOT NULL DEFAULT 0,
			expires INTEGER,
			PRIMARY KEY (domain, path, name)
		);

		CREATE TABLE IF NOT EXISTS local_values (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s := &Store{
		db:      db,
		path:    path,
		jar:     jar,
		now:     time.Now,
		entries: make(map[string]entry),
		values:  make(map[string]string),
	}
	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the location of the database.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, path, name, value, host_only, secure, http_only, expires
		FROM cookies
	`)
	if err != nil {
		return fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	now := s.now()
	for rows.Next() {
		var e entry
		var expires sql.NullInt64
		if err := rows.Scan(&e.Domain, &e.Path, &e.Name, &e.Value, &e.HostOnly, &e.Secure, &e.HTTPOnly, &expires); err != nil {
			return fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expires.Valid {
			e.Expires = time.Unix(expires.Int64, 0)
		}
		if e.expired(now) {
			continue
		}
		s.entries[e.key()] = e
		s.jar.SetCookies(e.origin(), []*http.Cookie{e.cookie()})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating cookies: %w", err)
	}

	valueRows, err := s.db.QueryContext(ctx, "SELECT name, value FROM local_values")
	if err != nil {
		return fmt.Errorf("failed to query local values: %w", err)
	}
	defer valueRows.Close()

	for valueRows.Next() {
		var name, value string
		if err := valueRows.Scan(&name, &value); err != nil {
			return fmt.Errorf("failed to scan local value: %w", err)
		}
		s.values[name] = value
	}
	if err := valueRows.Err(); err != nil {
		return fmt.Errorf("error iterating local values: %w", err)
	}

	return nil
}

// origin is a URL the jar accepts the cookie from.
func (e entry) origin() *url.URL {
	scheme := "http"
	if e.Secure {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: e.Domain, Path: e.Path}
}

func (e entry) cookie() *http.Cookie {
	c := &http.Cookie{
		Name:     e.Name,
		Value:    e.Value,
		Path:     e.Path,
		Secure:   e.Secure,
		HttpOnly: e.HTTPOnly,
		Expires:  e.Expires,
	}
	if !e.HostOnly {
		c.Domain = e.Domain
	}
	return c
}

// SetCookies implements http.CookieJar.
func (s *Store) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.jar.SetCookies(u, cookies)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, c := range cookies {
		e := entry{
			Domain:   strings.TrimPrefix(strings.ToLower(c.Domain), "."),
			Path:     c.Path,
			Name:     c.Name,
			Value:    c.Value,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if e.Domain == "" {
			e.Domain = strings.ToLower(u.Hostname())
			e.HostOnly = true
		}
		if e.Path == "" || e.Path[0] != '/' {
			e.Path = defaultCookiePath(u.Path)
		}

		switch {
		case c.MaxAge < 0:
			e.Expires = now
		case c.MaxAge > 0:
			e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			e.Expires = c.Expires
		}

		if e.expired(now) {
			delete(s.entries, e.key())
			continue
		}
		s.entries[e.key()] = e
	}
}

// Cookies implements http.CookieJar.
func (s *Store) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

// Get returns a local value by name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

// Set stores a local value. Local values are saved with the cookies but
// never sent over HTTP.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Save replaces the database contents with the current cookies and local
// values in a single transaction.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cookies"); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM local_values"); err != nil {
		return fmt.Errorf("failed to clear local values: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cookies (domain, path, name, value, host_only, secure, http_only, expires)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			continue
		}
		var expires sql.NullInt64
		if !e.Expires.IsZero() {
			expires = sql.NullInt64{Int64: e.Expires.Unix(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, e.Domain, e.Path, e.Name, e.Value, e.HostOnly, e.Secure, e.HTTPOnly, expires); err != nil {
			return fmt.Errorf("failed to save cookie %s: %w", e.Name, err)
		}
	}

	for name, value := range s.values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO local_values (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("failed to save local value %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.path != MemoryPath {
		if err := os.Chmod(s.path, 0o600); err != nil {
			return fmt.Errorf("failed to restrict cookie file permissions: %w", err)
		}
	}

	return nil
}

// defaultCookiePath is the RFC 6265 default-path of a request path.
func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// DefaultPath returns the default cookie database location: the home
// directory, else %LOCALAPPDATA%, else the working directory.
func DefaultPath() string {
	return defaultPath(os.Getenv, os.Getwd)
}

func defaultPath(getenv func(string) string, getwd func() (string, error)) string {
	if home := getenv("HOME"); home != "" {
		return filepath.Join(home, FileName)
	}
	if appData := getenv("LOCALAPPDATA"); appData != "" {
		return filepath.Join(appData, FileName)
	}
	if wd, err := getwd(); err == nil {
		return filepath.Join(wd, FileName)
	}
	return FileName
}
