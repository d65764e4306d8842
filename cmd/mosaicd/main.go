package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/edfixyz/mosaic/internal/api"
	"github.com/edfixyz/mosaic/internal/config"
	"github.com/edfixyz/mosaic/internal/ledger"
	"github.com/edfixyz/mosaic/internal/logger"
	"github.com/edfixyz/mosaic/internal/order"
	"github.com/edfixyz/mosaic/internal/serve"
	"github.com/edfixyz/mosaic/internal/session"
	"github.com/edfixyz/mosaic/internal/store"
	"github.com/edfixyz/mosaic/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("MOSAIC_CONFIG"), "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	log.WithField("version", version.String).Info("starting mosaic server")

	st, err := store.Open(cfg.Store.Path, logger.Component(log, "store"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ledgerHTTP := &http.Client{Timeout: cfg.Ledger.CallTimeout}
	sessions := session.NewCache(func(ctx context.Context, key session.Key) (ledger.Client, error) {
		base, ok := cfg.Ledger.Endpoints[key.Network.String()]
		if !ok {
			return nil, fmt.Errorf("no ledger endpoint configured for network %s", key.Network)
		}
		client := ledger.NewRemoteClient(base, key.Network, key.Secret, ledgerHTTP)
		if _, err := client.SyncState(ctx); err != nil {
			return nil, fmt.Errorf("initial sync: %w", err)
		}
		return client, nil
	}, cfg.Ledger.CreateTimeout, logger.Component(log, "session"))

	router := order.NewHTTPRouter(cfg.Desk.RouteTimeout)
	core := serve.New(sessions, st, router, logger.Component(log, "serve"))
	handler := api.NewHandler(core, logger.Component(log, "api"))
	e := api.NewRouter(handler, api.DefaultResolver, logger.Component(log, "http"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.Server.Addr).Info("listening")
		if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
