package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/filevault/internal/client/client"
	"github.com/dmitrijs2005/filevault/internal/client/config"
	"github.com/dmitrijs2005/filevault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/filevault/internal/client/services"
	"github.com/dmitrijs2005/filevault/internal/client/session"
	"github.com/dmitrijs2005/filevault/internal/client/storage"
	"github.com/dmitrijs2005/filevault/internal/filex"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

type App struct {
	config *config.Config
	api    client.Client
	http   *http.Client
	store  *session.Store
	svc    *services.Services
	db     *sql.DB
	// repo is the persisted session table, nil when sessions live in memory.
	repo   metadata.Repository
	logger logging.Logger

	reader *bufio.Reader
	out    io.Writer

	page        services.Page
	pageEntered bool
}

// NewApp wires the session store, API client and services for cfg. With
// cfg.SessionDB set the session is mirrored to that SQLite file.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	var (
		cell session.Cell
		db   *sql.DB
		repo metadata.Repository
	)
	if cfg.SessionDB != "" {
		path, err := filex.EnsureParentDir(cfg.SessionDB)
		if err != nil {
			return nil, err
		}
		db, err = storage.Open(ctx, path)
		if err != nil {
			logger.Error(ctx, "error initializing session database", "path", path, "error", err)
			return nil, err
		}
		r := metadata.NewSQLiteRepository(db)
		cell, repo = r, r
	} else {
		cell = session.NewMemoryCell()
	}

	hc := &http.Client{}
	opts := []client.Option{client.WithHTTPClient(hc), client.WithLogger(logger)}
	if !cfg.CredentialHeuristic {
		opts = append(opts, client.WithoutCredentialHeuristic())
	}

	api, err := client.NewHTTPClient(cfg.ServerBaseURL, opts...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	a := &App{
		config: cfg,
		api:    api,
		http:   hc,
		store:  session.NewStore(ctx, cell, cfg.Tab, logger),
		db:     db,
		repo:   repo,
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		page:   services.PageLogin,
	}
	a.svc = services.New(api, a.store, a, logger)

	if _, ok := a.store.Get(); ok {
		a.Navigate(services.PageMain)
	}
	return a, nil
}

// Run shows the current page and serves commands until the user exits or
// input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("filevault CLI (type 'help' for commands)")
	a.syncPage(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "close session database", "error", err)
		}
		a.db = nil
	}
}

func (a *App) currentPage() services.Page {
	return a.page
}

// syncPage runs the entry work of a page the user was just sent to. Entering
// the main page is gated on a session and loads the file list.
func (a *App) syncPage(ctx context.Context) {
	for a.pageEntered {
		a.pageEntered = false
		if a.page != services.PageMain {
			continue
		}
		if a.svc.Gate.RequireSession(ctx) {
			_ = a.svc.Files.Refresh(ctx)
		}
	}
}

func (a *App) getStatus() string {
	s := a.page.String()
	if tok, ok := a.store.Get(); ok {
		if user, ok := session.Subject(tok); ok {
			s = user + " " + s
		}
	}
	return fmt.Sprintf("(%s)", s)
}
