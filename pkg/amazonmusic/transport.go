package amazonmusic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds how much of a failed response is kept in an HTTPError.
const maxErrorBody = 512

// Call invokes an API endpoint and returns the decoded JSON response.
//
// When target is empty the call uses the legacy form-encoded API and body
// must be url.Values. Otherwise body is JSON-encoded and target names the
// remote handler in the X-Amz-Target header.
//
// The cookie store is saved after every call, whether it succeeds or not.
// Transport errors are returned as-is (wrapped); retry policy belongs to
// the HTTP client passed in Config.
func (c *Client) Call(ctx context.Context, endpoint, target string, body any) (raw json.RawMessage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		// Amazon may rotate cookies on any response.
		if saveErr := c.cookies.Save(context.WithoutCancel(ctx)); saveErr != nil && err == nil {
			raw, err = nil, fmt.Errorf("amazonmusic: failed to save cookies: %w", saveErr)
		}
	}()

	req, err := c.newCallRequest(ctx, endpoint, target, body)
	if err != nil {
		return nil, err
	}

	c.logDebugf("amazonmusic: calling %s (target %q)", endpoint, target)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: %s: failed to read response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(data)}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("amazonmusic: %s: failed to parse JSON response: %.200s", endpoint, data)
	}

	c.logDebugf("amazonmusic: %s succeeded", endpoint)
	return json.RawMessage(data), nil
}

// newCallRequest builds the POST for an API call with the session headers.
func (c *Client) newCallRequest(ctx context.Context, endpoint, target string, body any) (*http.Request, error) {
	var (
		reader      io.Reader
		contentType string
	)

	if target == "" {
		form, ok := body.(url.Values)
		if !ok {
			return nil, fmt.Errorf("%w: legacy call to %s needs url.Values, got %T", ErrInvalidArgument, endpoint, body)
		}
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("amazonmusic: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("amazonmusic: failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("csrf-token", c.session.CSRF.Token)
	req.Header.Set("csrf-rnd", c.session.CSRF.Random)
	req.Header.Set("csrf-ts", c.session.CSRF.Timestamp)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", contentType)
	if target != "" {
		req.Header.Set("X-Amz-Target", target)
		req.Header.Set("Content-Encoding", "amz-1.0")
	}

	return req, nil
}

// endpointURL returns {base_url}/{region}/api/{endpoint}.
func (c *Client) endpointURL(endpoint string) string {
	return fmt.Sprintf("%s/%s/api/%s", c.session.BaseURL, c.session.Region, endpoint)
}
