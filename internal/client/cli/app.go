// Package cli is the interactive library client: a REPL over the catalog,
// the borrowing services and the session manager.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/libkeeper/internal/client/api"
	"github.com/dmitrijs2005/libkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/libkeeper/internal/client/config"
	"github.com/dmitrijs2005/libkeeper/internal/client/models"
	"github.com/dmitrijs2005/libkeeper/internal/client/services"
	"github.com/dmitrijs2005/libkeeper/internal/client/session"
	"github.com/dmitrijs2005/libkeeper/internal/client/storage"
	"github.com/dmitrijs2005/libkeeper/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	client  api.Client
	session *session.Manager
	catalog *catalog.Catalog
	loans   *services.LoanService
	profile *services.ProfileService
	borrow  *services.BorrowService
	reader  *bufio.Reader

	// lastBooks and lastBorrowed cache the most recent listings so
	// commands can refer to rows by number.
	lastBooks    []models.Book
	lastBorrowed []models.BorrowedBook
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	sl := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger := logging.NewSlogLogger(sl)

	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	client := api.NewHTTPClient(c.GatewayAddr, c.RequestTimeout, c.RetryAttempts, c.RetryDelay, logger)

	store := session.NewStore(storage.NewSQLiteRepository(db))
	manager := session.NewManager(client, store, session.Config{
		Lifetime:         c.SessionDuration,
		WarningTime:      c.SessionWarningTime,
		FinalWarningTime: c.SessionFinalWarningTime,
		CheckInterval:    c.ActivityCheckInterval,
	}, logger)

	cat := catalog.New(client, c.UpstreamBaseURL, c.PageLimit, logger)
	loans := services.NewLoanService(client, c.LoanDurationDays, logger)
	profile := services.NewProfileService(client, loans, c.MaxBooksAllowed, logger)
	borrow := services.NewBorrowService(client, cat, profile, logger)

	return &App{
		config:  c,
		logger:  logger,
		client:  client,
		session: manager,
		catalog: cat,
		loans:   loans,
		profile: profile,
		borrow:  borrow,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == session.StateAuthenticated
}

// Touch records user activity on every command.
func (a *App) Touch() {
	a.session.Touch(context.Background())
}

// Dismiss silences the currently displayed expiry warning.
func (a *App) Dismiss() {
	level, _ := a.session.CurrentWarning()
	if level == session.WarnNone {
		printlnFn("No active warning.")
		return
	}
	a.session.DismissWarning(level)
	printlnFn("Warning dismissed.")
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.session.OnWarning = func(level session.WarningLevel, remaining time.Duration) {
		if level == session.WarnFinal {
			printlnFn("Your session is about to expire! Type 'dismiss' to hide this warning.")
		} else {
			printlnFn("Session expires in", remaining.Round(time.Second), "- any command extends it. Type 'dismiss' to hide this warning.")
		}
	}
	a.session.OnExpired = func() {
		a.catalog.Clear()
		printlnFn("Session expired. Please login again.")
	}

	if err := a.session.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err.Error())
	}

	a.session.Start(ctx)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) getStatus() string {
	if sess := a.session.Current(); sess != nil {
		return "(" + sess.Name + ")"
	}
	return ""
}
