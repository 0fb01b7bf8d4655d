package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jakechorley/volunteer-portal/internal/config"
	"github.com/jakechorley/volunteer-portal/pkg/clients/gmailclient"
	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
	"github.com/jakechorley/volunteer-portal/pkg/db"
	"github.com/jakechorley/volunteer-portal/pkg/utils"
	"github.com/jakechorley/volunteer-portal/pkg/utils/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Creds    *config.Credentials
	Portal   *portalclient.Client
	Tokens   *utils.TokenStore
	Ledger   db.TransitionLedger
	Metrics  *metrics.Collector
	Registry *prometheus.Registry
	Logger   *zap.Logger
	Clock    clock.Clock
	Ctx      context.Context
	In       io.Reader
	Out      io.Writer

	// GoogleAuth is set up lazily by the export and reminder commands
	GoogleAuth func() (*utils.GoogleAuth, error)

	mu     sync.Mutex
	input  *bufio.Reader
	sheets *sheetsclient.Client
	gmail  *gmailclient.Client
	boards map[string]*services.AchievementsResult
}

// Input returns the shared line reader over In, so prompts and the
// interactive session read from the same buffer
func (a *AppContext) Input() *bufio.Reader {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.input == nil {
		a.input = bufio.NewReader(a.In)
	}
	return a.input
}

// Guard returns the transition guard backed by the configured ledger
func (a *AppContext) Guard() *services.Guard {
	guard := &services.Guard{Ledger: a.Ledger}
	if a.Metrics != nil {
		guard.Metrics = a.Metrics
	}
	return guard
}

// LoadOptions returns the board loading options for the configured event window
func (a *AppContext) LoadOptions() services.LoadOptions {
	opts := services.LoadOptions{Clock: a.Clock}
	if a.Cfg != nil && a.Cfg.EventWindow != nil {
		opts.YearsBack = a.Cfg.EventWindow.YearsBack
		opts.YearsAhead = a.Cfg.EventWindow.YearsAhead
	}
	return opts
}

// EventYears lists the years searched when resolving an event id
func (a *AppContext) EventYears() []int {
	opts := a.LoadOptions()
	return achievements.EventYears(a.Clock.Now().Year(), opts.YearsBack, opts.YearsAhead)
}

// Board returns the employee's board, reusing the one loaded earlier in the
// session unless refresh is set
func (a *AppContext) Board(employeeID string, refresh bool) (*services.AchievementsResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.boards == nil {
		a.boards = make(map[string]*services.AchievementsResult)
	}
	if loaded, ok := a.boards[employeeID]; ok && !refresh {
		return loaded, nil
	}

	loaded, err := services.LoadAchievements(a.Ctx, a.Portal, employeeID, a.LoadOptions(), a.Logger)
	if err != nil {
		return nil, err
	}
	a.boards[employeeID] = loaded
	return loaded, nil
}

// EmployeeID returns the --employee flag, or the signed-in user's employee id
func (a *AppContext) EmployeeID(cmd *cobra.Command) (string, error) {
	if flag := cmd.Flags().Lookup("employee"); flag != nil && flag.Value.String() != "" {
		return flag.Value.String(), nil
	}

	user, err := services.CurrentUser(a.Ctx, a.Portal, a.Logger)
	if err != nil {
		return "", fmt.Errorf("no --employee given and the current user is unknown: %w", err)
	}
	return user.EmployeeID, nil
}

// SheetsClient returns the Google Sheets client, authenticating on first use
func (a *AppContext) SheetsClient() (*sheetsclient.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sheets != nil {
		return a.sheets, nil
	}

	auth, err := a.googleAuth()
	if err != nil {
		return nil, err
	}
	httpClient, err := auth.HTTPClient(a.Ctx)
	if err != nil {
		return nil, err
	}

	a.sheets, err = sheetsclient.NewClient(a.Ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return a.sheets, nil
}

// GmailClient returns the Gmail client, authenticating on first use
func (a *AppContext) GmailClient() (*gmailclient.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.gmail != nil {
		return a.gmail, nil
	}

	auth, err := a.googleAuth()
	if err != nil {
		return nil, err
	}
	httpClient, err := auth.HTTPClient(a.Ctx)
	if err != nil {
		return nil, err
	}

	a.gmail, err = gmailclient.NewClient(a.Ctx, httpClient, a.Cfg.GmailUserID, a.Cfg.GmailSender)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return a.gmail, nil
}

func (a *AppContext) googleAuth() (*utils.GoogleAuth, error) {
	if a.GoogleAuth == nil {
		return nil, fmt.Errorf("google authentication is not configured")
	}
	return a.GoogleAuth()
}

// PortalTokenSource wraps token in a refreshing source that writes renewals back to the token store
func PortalTokenSource(app *AppContext, token *oauth2.Token) oauth2.TokenSource {
	tokenCfg := portalclient.TokenConfig{TokenURL: app.Cfg.TokenURL}
	if app.Creds != nil {
		tokenCfg.ClientID = app.Creds.ClientID
		tokenCfg.ClientSecret = app.Creds.ClientSecret
	}

	save := func(t *oauth2.Token) error {
		return app.Tokens.Save(utils.TokenPortal, app.Env, t)
	}
	return portalclient.NewTokenSource(app.Ctx, tokenCfg, token, save, app.Logger)
}

func addEmployeeFlag(cmd *cobra.Command) {
	cmd.Flags().String("employee", "", "Employee id (defaults to the signed-in user)")
}
