package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jfmyers9/amzn/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse your library interactively",
	Long: `Open an interactive browser over the albums in your library.

Keyboard shortcuts:
  Tab     Switch between albums and tracks
  Enter   Open an album, or show a track's stream URL
  q       Quit`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := tui.DefaultConfig()
	cfg.RequestTimeout = s.cfg.HTTP.Timeout()
	cfg.Logger = s.logger

	return tui.NewWithConfig(s.client, cfg).Run(cmd.Context())
}
