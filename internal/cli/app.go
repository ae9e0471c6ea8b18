package cli

import (
	"database/sql"
	"io"
	"log/slog"

	"github.com/odysseus0/chatvault/internal/capture"
	"github.com/odysseus0/chatvault/internal/config"
	"github.com/odysseus0/chatvault/internal/fetch"
	"github.com/odysseus0/chatvault/internal/store"
	"github.com/odysseus0/chatvault/internal/transport"
)

type App struct {
	cfg      config.Config
	db       *sql.DB
	store    *store.Store
	capturer *capture.Capturer
	fetcher  *fetch.Fetcher
	service  *transport.Service
	logger   *slog.Logger
}

func NewApp(cfg config.Config, dbPath string, logOut io.Writer) (*App, error) {
	cfg.DBPath = dbPath
	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel}))
	s := store.NewStore(db)
	fetcher := fetch.NewFetcher(fetch.Config{
		Concurrency: cfg.FetchConcurrency,
		Timeout:     cfg.HTTPTimeout,
		UserAgent:   cfg.UserAgent,
	})

	return &App{
		cfg:      cfg,
		db:       db,
		store:    s,
		capturer: capture.NewCapturer(logger, captureProfiles(cfg.Profiles)...),
		fetcher:  fetcher,
		service:  transport.NewService(s, logger),
		logger:   logger,
	}, nil
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func captureProfiles(in []config.Profile) []capture.Profile {
	out := make([]capture.Profile, 0, len(in))
	for _, p := range in {
		out = append(out, capture.Profile{
			Name:              p.Name,
			MessageSelector:   p.MessageSelector,
			RoleAttr:          p.RoleAttr,
			UserSelector:      p.UserSelector,
			AssistantSelector: p.AssistantSelector,
			ContentSelector:   p.ContentSelector,
			TitleSelector:     p.TitleSelector,
		})
	}
	return out
}
