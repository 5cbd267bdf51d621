package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jfmyers9/amzn/internal/config"
)

var loginSave bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Amazon Music",
	Long: `Sign in to Amazon Music and store the session cookies.

If the stored cookies are still valid no credentials are needed. Otherwise
the password is read from AMZN_PASSWORD or prompted for. Amazon may ask for
a CAPTCHA after repeated sign-ins; sign in once in a browser and try again.

Use --save to remember the email in the config file.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().BoolVar(&loginSave, "save", false, "Save the email to the config file")
}

func runLogin(cmd *cobra.Command, args []string) error {
	s, err := connect(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info := s.client.Session()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Signed in to %s\n", info.BaseURL)
	fmt.Fprintf(out, "  Region:    %s\n", info.Region)
	fmt.Fprintf(out, "  Territory: %s\n", info.Territory)
	fmt.Fprintf(out, "  Catalog:   %s\n", info.Subscription)

	if loginSave {
		if err := s.cfg.Save(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		path := configPath
		if path == "" {
			path = filepath.Join(config.GetConfigDir(), "config.yaml")
		}
		fmt.Fprintf(out, "✓ Config saved to %s\n", path)
	}

	return nil
}
