package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/Cloudbrowse/internal/adapter/gdrive"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

func newAuthCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a remote",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "gdrive",
		Short: "Run the Google Drive OAuth flow and save the token",
		Long: `Prints an authorization URL, reads the code you paste back and saves
the token to options.token_path (default: the user config dir). Set
options.readonly to "true" to request read-only access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Remote.Type != domain.RemoteGDrive {
				return fmt.Errorf("%w: configured remote is %s, not gdrive", domain.ErrConfigInvalid, cfg.Remote.Type)
			}

			auth := gdrive.AuthenticatorFor(cfg.Remote)
			if _, err := auth.Authenticate(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token saved to %s\n", auth.TokenPath())
			return nil
		},
	})
	return cmd
}
