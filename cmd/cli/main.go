package main

import (
	"context"
	"fmt"
	"os"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/cmd/cli/commands"
	"github.com/jakechorley/volunteer-portal/internal/config"
	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/db"
	"github.com/jakechorley/volunteer-portal/pkg/postgres"
	"github.com/jakechorley/volunteer-portal/pkg/utils"
	"github.com/jakechorley/volunteer-portal/pkg/utils/logging"
	"github.com/jakechorley/volunteer-portal/pkg/utils/metrics"
)

var (
	env     string
	verbose bool
	// app is populated by initApp before any command runs
	app = &commands.AppContext{}
	// closers run after the command finishes
	closers []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "portal",
		Short: "Volunteer Portal CLI - Track and act on corporate volunteering",
		Long: `A CLI for employees and administrators of the corporate volunteering portal:
view achievements, confirm or reject participation, rate events, leave feedback,
download certificates, manage activities and run the web app backend.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for _, c := range closers {
				c()
			}
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(commands.AchievementsCmd(app))
	rootCmd.AddCommand(commands.ConfirmCmd(app))
	rootCmd.AddCommand(commands.RejectCmd(app))
	rootCmd.AddCommand(commands.RateCmd(app))
	rootCmd.AddCommand(commands.FeedbackCmd(app))
	rootCmd.AddCommand(commands.CertificateCmd(app))
	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.SetTokenCmd(app))
	rootCmd.AddCommand(commands.WhoamiCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.ActivitiesCmd(app))
	rootCmd.AddCommand(commands.LocationsCmd(app))
	rootCmd.AddCommand(commands.SuggestionsCmd(app))
	rootCmd.AddCommand(commands.ExportVolunteersCmd(app))
	rootCmd.AddCommand(commands.SendFeedbackRemindersCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, portal client, metrics and the transition ledger
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()
	app.Clock = clock.WallClock
	app.In = os.Stdin
	app.Out = os.Stdout

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Creds, err = config.LoadCredentialsWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Initialize metrics
	app.Metrics = metrics.NewCollector()
	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		app.Metrics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize token store
	app.Tokens, err = utils.DefaultTokenStore()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	// Initialize portal client
	app.Logger.Info("Initializing portal client", zap.String("base_url", app.Cfg.APIBaseURL))
	app.Portal, err = portalclient.NewClient(portalclient.Options{
		BaseURL:  app.Cfg.APIBaseURL,
		Timeout:  app.Cfg.RequestTimeout,
		Username: app.Creds.Username,
		Password: app.Creds.Password,
		Logger:   app.Logger,
		Observer: app.Metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create portal client: %w", err)
	}

	token, err := app.Tokens.Load(utils.TokenPortal, env)
	if err != nil {
		app.Logger.Warn("Ignoring unreadable portal token", zap.Error(err))
	} else if token != nil {
		app.Portal.SetTokenSource(commands.PortalTokenSource(app, token))
		app.Logger.Debug("Using stored portal token")
	}

	// Initialize transition ledger
	if app.Creds.DatabaseURL != "" {
		app.Logger.Info("Connecting to transition ledger database")
		pg, err := postgres.NewDB(app.Ctx, app.Creds.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.RunMigrations(app.Ctx); err != nil {
			pg.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		closers = append(closers, pg.Close)
		app.Ledger = pg
	} else {
		app.Logger.Debug("No DATABASE_URL set, using in-memory transition ledger")
		app.Ledger = db.NewMemoryLedger(app.Clock, 0)
	}

	// Google auth is only needed by the export and reminder commands
	app.GoogleAuth = func() (*utils.GoogleAuth, error) {
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
		if err != nil {
			return nil, err
		}
		return utils.NewGoogleAuth(oauthConfig, app.Tokens, env, app.Logger), nil
	}

	app.Logger.Info("Application initialized successfully")
	return nil
}
