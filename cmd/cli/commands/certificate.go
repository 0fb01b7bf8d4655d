package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// CertificateCmd creates the certificate command
func CertificateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate <volunteer_id>",
		Short: "Download the participation certificate for an attended event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, err := parseID("volunteer_id", args[0])
			if err != nil {
				return err
			}

			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = app.Cfg.CertificateDir
			}

			path, err := services.DownloadCertificate(app.Ctx, app.Portal, app.Logger, dir, volunteerID)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Certificate saved to %s\n\n", path)
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Directory to save into (defaults to certificateDir from config)")
	return cmd
}
