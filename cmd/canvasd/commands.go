package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	"github.com/goliatone/go-canvas/components/canvas/stores/sqlitestore"
	"github.com/goliatone/go-canvas/pkg/config"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct {
	Config string `short:"c" type:"path" help:"Path to a YAML config file." env:"CANVAS_CONFIG"`
	Addr   string `help:"Override server.addr."`
}

func (cmd *serveCmd) Run(ctx context.Context) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn("close resources", zap.Error(err))
		}
	}()

	logger.Info("canvas server starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("transport", cfg.Server.Transport),
		zap.String("store", cfg.Store.Driver),
		zap.String("charts", cfg.Charts.Source),
	)
	go a.evictIdle(ctx, time.Minute)
	if cfg.Server.Transport == "chi" {
		return serveChi(ctx, a, cfg.Server.Addr)
	}
	return serveFiber(ctx, a, cfg.Server.Addr)
}

func serveFiber(ctx context.Context, a *app, addr string) error {
	server := router.NewFiberAdapter()
	if err := a.registerGoRouter(server.Router()); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func serveChi(ctx context.Context, a *app, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.chiHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type migrateCmd struct {
	Config string `short:"c" type:"path" help:"Path to a YAML config file." env:"CANVAS_CONFIG"`
	Path   string `help:"SQLite database path (defaults to store.sqlite_path)."`
}

func (cmd *migrateCmd) Run(_ context.Context) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return err
	}
	path := cmd.Path
	if path == "" {
		path = cfg.Store.SQLitePath
	}
	store, err := sqlitestore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Printf("✓ migrated %s\n", path)
	return nil
}
