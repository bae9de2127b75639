package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/draftboard/internal/config"
	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/coordinator"
	"github.com/DoyleJ11/draftboard/internal/details"
	"github.com/DoyleJ11/draftboard/internal/draftapi"
	"github.com/DoyleJ11/draftboard/internal/httpapi"
	"github.com/DoyleJ11/draftboard/internal/hub"
	"github.com/DoyleJ11/draftboard/internal/journal"
	"github.com/DoyleJ11/draftboard/internal/logging"
	"github.com/DoyleJ11/draftboard/internal/metrics"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/state"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"github.com/DoyleJ11/draftboard/internal/ws"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// seedFile is the initial board as served by the draft page.
type seedFile struct {
	Available []types.Player `json:"available"`
	Teams     []struct {
		ID      int            `json:"id"`
		Name    string         `json:"name"`
		Players []types.Player `json:"players"`
	} `json:"teams"`
}

func main() {
	flags := pflag.NewFlagSet("draftboard", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	seedPath := flags.String("seed", "", "JSON file with the initial available pool and teams")
	flags.String("league", "", "league to join")
	flags.String("listen", "", "address of the local board API")
	flags.String("socket", "", "realtime endpoint of the draft server")
	_ = flags.Parse(os.Args[1:])

	if err := run(*configPath, *seedPath, flags); err != nil {
		fmt.Fprintln(os.Stderr, "draftboard:", err)
		os.Exit(1)
	}
}

func run(configPath, seedPath string, flags *pflag.FlagSet) error {
	boot, _ := zap.NewProduction()
	cfg, err := config.Load(boot, configPath, flags)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	h := hub.NewHub(ctx)

	header := http.Header{}
	if cfg.HTTP.SessionCookie != "" {
		header.Set("Cookie", cfg.HTTP.SessionCookie)
	}
	mgr := h.Ensure(conn.Options{
		URL:            cfg.Socket.URL,
		FallbackURL:    cfg.Socket.FallbackURL,
		League:         cfg.Session.League,
		Header:         header,
		ConnectTimeout: cfg.Socket.ConnectTimeout,
		FallbackDelay:  cfg.Socket.FallbackDelay,
		Primary:        ws.PrimaryDialer{WriteTimeout: cfg.Socket.WriteTimeout, Logger: logger},
		Fallback: ws.FallbackDialer{
			HandshakeTimeout: cfg.Socket.ConnectTimeout,
			WriteTimeout:     cfg.Socket.WriteTimeout,
			Logger:           logger,
		},
		Metrics: m,
		Logger:  logger,
	})
	if mgr == nil {
		return errors.New("hub stopped before the connection manager was created")
	}

	store, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	sink := ui.NewLogSink(logger, 50)
	opts := coordinator.Options{
		Realtime:           mgr,
		Store:              state.NewStore(state.Session{LeagueName: cfg.Session.League, CurrentUserID: cfg.Session.CurrentUserID(), Username: cfg.Session.Username}),
		Toaster:            sink,
		Loader:             sink,
		Journal:            store,
		Metrics:            m,
		Logger:             logger,
		TransactionTimeout: cfg.Draft.TransactionTimeout,
		AnimationDelay:     cfg.Draft.AnimationDelay,
		RecountDelay:       cfg.Draft.RecountDelay,
		NoticeTTL:          cfg.Draft.NoticeTTL,
		HTTPTimeout:        cfg.HTTP.Timeout,
	}
	if cfg.HTTP.BaseURL != "" {
		api := draftapi.New(draftapi.Options{
			BaseURL:       cfg.HTTP.BaseURL,
			Timeout:       cfg.HTTP.Timeout,
			CSRF:          csrfSource(cfg.HTTP),
			SessionCookie: cfg.HTTP.SessionCookie,
			Logger:        logger,
		})
		opts.API = api
		opts.Analyzer = api
	}

	board, err := coordinator.New(ctx, opts)
	if err != nil {
		return err
	}
	if seedPath != "" {
		if err := seed(board, seedPath); err != nil {
			board.Close()
			return err
		}
	}

	srv := &http.Server{
		Addr: cfg.API.Listen,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Board:   board,
			Details: details.New(mgr, sink, logger),
			Journal: store,
			Metrics: m,
			Logger:  logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("board api listening", zap.String("addr", cfg.API.Listen), zap.String("league", cfg.Session.League))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			board.Close()
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	board.Close()
	stop()
	<-h.Done()
	return nil
}

func csrfSource(c config.HTTPConfig) draftapi.CSRFSource {
	if c.CSRFToken != "" {
		return draftapi.StaticToken(c.CSRFToken)
	}
	page := c.CSRFPage
	if page == "" {
		page = c.BaseURL
	}
	return &draftapi.MetaTagSource{PageURL: page, Cookie: c.SessionCookie}
}

func openJournal(c config.JournalConfig) (journal.Store, error) {
	if c.DatabaseURL == "" {
		return journal.NewMemoryStore(c.Keep), nil
	}
	g, err := journal.OpenPostgres(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return g, nil
}

func seed(board *coordinator.Coordinator, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}
	teams := make([]roster.TeamSeed, 0, len(f.Teams))
	for _, t := range f.Teams {
		teams = append(teams, roster.TeamSeed{ID: t.ID, Name: t.Name, Players: t.Players})
	}
	return board.Seed(f.Available, teams)
}
