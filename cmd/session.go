package cmd

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/amzn/internal/config"
	"github.com/jfmyers9/amzn/internal/cookiestore"
	"github.com/jfmyers9/amzn/internal/transport"
	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

// session is a signed-in client together with what it holds open.
type session struct {
	client *amazonmusic.Client
	cfg    *config.Config
	logger zerolog.Logger
	store  *cookiestore.Store
}

// Close releases the cookie database.
func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// connect signs in for a command. Tests replace it to talk to a fake
// Amazon.
var connect = openSession

func openSession(cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if emailOverride != "" {
		cfg.Email = emailOverride
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	store, err := cookiestore.Open(ctx, cfg.CookiePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie store: %w", err)
	}

	opts := transport.DefaultOptions()
	opts.RetryMax = cfg.HTTP.RetryMax
	opts.Timeout = cfg.HTTP.Timeout()
	opts.RequestsPerSecond = cfg.HTTP.RequestsPerSecond
	opts.Logger = logger

	logger.Debug().
		Str("cookies", store.Path()).
		Str("subscription", string(cfg.Subscription())).
		Msg("Signing in")

	client, err := amazonmusic.NewSession(ctx, amazonmusic.Config{
		Credentials:  promptCredentials(cfg.Email, cmd.InOrStdin(), cmd.ErrOrStderr()),
		Cookies:      store,
		Subscription: cfg.Subscription(),
		HTTPClient:   transport.NewHTTPClient(opts),
		Logger:       transport.NewLogger(logger),
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	return &session{client: client, cfg: cfg, logger: logger, store: store}, nil
}
