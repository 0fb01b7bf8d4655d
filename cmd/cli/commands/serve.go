package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/server"
)

// ServeCmd creates the serve command, which runs the HTTP backend for the web app
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP backend for the volunteering web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Cfg.Server.Addr
			}

			opts := app.LoadOptions()
			srv := server.New(server.Options{
				Sessions:       server.ClientSessions{Client: app.Portal},
				Guard:          app.Guard(),
				Logger:         app.Logger,
				Clock:          app.Clock,
				Location:       time.Local,
				YearsBack:      opts.YearsBack,
				YearsAhead:     opts.YearsAhead,
				Gatherer:       app.Registry,
				AllowedOrigins: app.Cfg.Server.AllowedOrigins,
			})

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			app.Logger.Info("Starting server", zap.String("addr", addr))
			fmt.Fprintf(app.Out, "\n🚀 Listening on %s (Ctrl+C to stop)\n", addr)

			if err := srv.Run(ctx, addr); err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}

			fmt.Fprintln(app.Out, "👋 Server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
	return cmd
}
