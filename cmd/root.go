package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	configPath    string
	logLevel      string
	emailOverride string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "amzn",
	Short: "Amazon Music client",
	Long: `amzn signs in to Amazon Music and browses the catalog and your library.

Cookies are kept in ~/.amzn.cookies, so you only sign in once. The account
email is read from ~/.config/amzn/config.yaml (or AMZN_EMAIL) and the
password from AMZN_PASSWORD or an interactive prompt. The password is never
stored.

Listings print stream URLs with --urls. Streams are M3U playlists of short
segments, so use a player that handles playlists seamlessly, such as mpv.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/amzn/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&emailOverride, "email", "", "Amazon account email; overrides the config file")
}
