package amazonmusic

import (
	"errors"
	"fmt"
)

// Predefined errors for common cases.
var (
	// ErrAuthenticationUnresolved is returned when no configuration blob
	// could be found after following the sign-in redirects. This usually
	// means Amazon presented a CAPTCHA or another challenge that needs a
	// human. Retrying is unlikely to help.
	ErrAuthenticationUnresolved = errors.New("amazonmusic: appConfig could not be found (you may have triggered the captcha)")

	// ErrConcurrencyLimit is returned by Track.URL when the account has
	// reached its server-side cap of concurrent streams.
	ErrConcurrencyLimit = errors.New("amazonmusic: MAX_CONCURRENCY_REACHED")

	// ErrMissingCredentials is returned when a sign-in form must be
	// submitted but no credentials were provided.
	ErrMissingCredentials = errors.New("amazonmusic: credentials required to sign in")

	// ErrInvalidConfig is returned when client configuration is invalid.
	ErrInvalidConfig = errors.New("amazonmusic: invalid configuration")

	// ErrInvalidArgument is returned when a call is made with an unusable
	// argument, such as an empty ASIN.
	ErrInvalidArgument = errors.New("amazonmusic: invalid argument")
)

// SchemaMismatchError reports a required field that was absent from an
// upstream JSON payload. The payload is kept verbatim so the failure can be
// diagnosed against a service that has no stable contract.
type SchemaMismatchError struct {
	Field   string // Dotted path of the missing field
	Payload string // Offending JSON document
}

// Error returns the error message.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("amazonmusic: %s not found in %s", e.Field, e.Payload)
}

// Is reports whether target is a *SchemaMismatchError for the same field.
// A target with an empty Field matches any schema mismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	t, ok := target.(*SchemaMismatchError)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// HTTPError is returned when an API call answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

// Error returns the error message.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("amazonmusic: %s: unexpected status code %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Is reports whether target is an *HTTPError with the same status code. A
// zero StatusCode in target matches any status.
func (e *HTTPError) Is(target error) bool {
	t, ok := target.(*HTTPError)
	if !ok {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}
