// Package transport builds the HTTP client used to talk to Amazon Music:
// retries with backoff, a circuit breaker and request throttling.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Options configures the HTTP client.
type Options struct {
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	Timeout           time.Duration // Whole request, redirects included
	RequestsPerSecond float64       // Zero or less disables throttling
	Logger            zerolog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		RetryMax:          3,
		RetryWaitMin:      200 * time.Millisecond,
		RetryWaitMax:      2 * time.Second,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 5,
		Logger:            zerolog.Nop(),
	}
}

// NewHTTPClient returns an *http.Client for amazonmusic.Config.
//
// Redirects and cookies stay with the returned client: the retrying layer
// underneath performs exactly one exchange per attempt, so the session can
// observe every hop of the sign-in redirect chain.
func NewHTTPClient(opts Options) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.Logger = NewLogger(opts.Logger)
	// Hand the final response back instead of a "giving up" error so that
	// callers still see the status code and body.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	rc.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if opts.RequestsPerSecond > 0 {
		rc.HTTPClient.Transport = &throttledTransport{
			limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
			next:    rc.HTTPClient.Transport,
		}
	}

	return &http.Client{
		Transport: newBreakerTransport(&retryablehttp.RoundTripper{Client: rc}, opts.Logger),
		Timeout:   opts.Timeout,
	}
}

// throttledTransport waits for the limiter before every attempt.
type throttledTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

// errServerStatus marks a 5xx response as a breaker failure.
var errServerStatus = errors.New("server error status")

// breakerTransport stops sending requests after repeated server failures
// and lets a few through again once the breaker's timeout has passed.
type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker
	next    http.RoundTripper
}

func newBreakerTransport(next http.RoundTripper, logger zerolog.Logger) *breakerTransport {
	settings := gobreaker.Settings{
		Name:        "amazon-music",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}
	return &breakerTransport{breaker: gobreaker.NewCircuitBreaker(settings), next: next}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	_, err := t.breaker.Execute(func() (interface{}, error) {
		var err error
		resp, err = t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("amazon music unavailable: %w", err)
	case err != nil:
		return nil, err
	}
	return resp, nil
}
