package amazonmusic

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// appConfigMarker identifies the line of the web player page that assigns
// the global configuration object.
const appConfigMarker = "amznMusic.appConfig = "

// regions maps known realms to API region codes. Any other realm uses its
// first two characters.
var regions = map[string]string{
	"USAmazon": "NA",
	"EUAmazon": "EU",
	"FEAmazon": "FE",
}

// appConfig is the web player configuration embedded in the home page.
type appConfig struct {
	payload
}

// parseAppConfig scans body for the configuration line. It returns
// ErrAuthenticationUnresolved when no such line exists, which is what a
// CAPTCHA or any other interstitial page looks like.
func parseAppConfig(body []byte) (*appConfig, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 32*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, appConfigMarker) {
			continue
		}

		line = strings.TrimSuffix(strings.TrimSpace(line), ";")
		start := strings.Index(line, "{")
		if start < 0 {
			continue
		}
		blob := line[start:]
		if !gjson.Valid(blob) {
			return nil, fmt.Errorf("amazonmusic: appConfig is not valid JSON: %.200s", blob)
		}

		cfg := &appConfig{payload{gjson.Parse(blob)}}
		if _, err := cfg.require("isRecognizedCustomer"); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to scan page: %w", err)
	}

	return nil, ErrAuthenticationUnresolved
}

// recognized reports whether Amazon bound the session to a customer.
func (c *appConfig) recognized() bool {
	return c.Get("isRecognizedCustomer").Int() != 0
}

// session extracts the session fields. Every field is required.
func (c *appConfig) session() (Session, error) {
	var s Session
	fields := []struct {
		path string
		dst  *string
	}{
		{"deviceId", &s.DeviceID},
		{"CSRFTokenConfig.csrf_token", &s.CSRF.Token},
		{"CSRFTokenConfig.csrf_ts", &s.CSRF.Timestamp},
		{"CSRFTokenConfig.csrf_rnd", &s.CSRF.Random},
		{"customerId", &s.CustomerID},
		{"deviceType", &s.DeviceType},
		{"musicTerritory", &s.Territory},
		{"i18n.locale", &s.Locale},
	}
	for _, f := range fields {
		v, err := c.requireString(f.path)
		if err != nil {
			return Session{}, err
		}
		*f.dst = v
	}

	realm, err := c.requireString("realm")
	if err != nil {
		return Session{}, err
	}
	s.Region = regionForRealm(realm)

	server, err := c.requireString("serverInfo.returnUrlServer")
	if err != nil {
		return Session{}, err
	}
	s.BaseURL = "https://" + server

	return s, nil
}

func regionForRealm(realm string) string {
	if region, ok := regions[realm]; ok {
		return region
	}
	if len(realm) < 2 {
		return realm
	}
	return realm[:2]
}
