package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/0xADE/ade-omnibox/internal/config"
	"github.com/0xADE/ade-omnibox/internal/indexer"
	"github.com/0xADE/ade-omnibox/internal/indexer/launchable"
	"github.com/0xADE/ade-omnibox/internal/indexer/roots"
	"github.com/0xADE/ade-omnibox/internal/launcher"
	"github.com/0xADE/ade-omnibox/internal/omnibox"
	"github.com/0xADE/ade-omnibox/internal/store"
	"github.com/0xADE/ade-omnibox/server"
)

const shutdownGrace = 5 * time.Second

func main() {
	// Initialize configuration
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()
	logger := cfg.Logger("omniboxd")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(log.WithContext(context.Background(), logger.WithPrefix("config")))
	defer cancel()

	// Start config watcher
	if err := config.Run(ctx); err != nil {
		logger.Fatal("failed to start config watcher", "err", err)
	}
	defer cfg.Close()

	var gw store.Gateway
	db, err := store.OpenBolt(cfg.DataDir(), logger.WithPrefix("store"))
	if err != nil {
		logger.Error("database unavailable, state will not survive a restart", "dir", cfg.DataDir(), "err", err)
		gw = store.NewMemory()
	} else {
		logger.Info("database opened", "path", db.Path())
		gw = db
	}

	discoverer := roots.NewDiscoverer(cfg.PathEnv(), cfg.ExtraRoots, logger.WithPrefix("roots"))
	idx := indexer.NewIndexer(discoverer, launchable.Default(), cfg.Workers(), logger.WithPrefix("indexer"))

	opener := launcher.New(cfg.Terminal(), logger.WithPrefix("launcher"))
	opener.Locale = cfg.Locale()

	svc := omnibox.New(omnibox.Options{
		Store:   gw,
		Scanner: idx,
		Opener:  opener,
		Logger:  logger,
	})

	// Rescan at startup and whenever the extra roots change
	svc.RefreshIndex(ctx)
	cfg.OnChange(func() { svc.RefreshIndex(ctx) })

	// Create server
	srv, err := server.NewServer(cfg.UnixSocket(), svc, logger.WithPrefix("server"))
	if err != nil {
		logger.Fatal("failed to create server", "err", err)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(ctx)
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("ade-omniboxd started", "socket", cfg.UnixSocket(), "entries", svc.Count())

	exitCode := 0
	select {
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", "err", err)
			exitCode = 1
		}
	}

	cancel()
	if err := srv.Stop(); err != nil {
		logger.Error("error stopping server", "err", err)
	}
	// Let a running refresh or launch finish writing before the store closes
	waited := make(chan struct{})
	go func() {
		svc.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(shutdownGrace):
		logger.Warn("background tasks still running at shutdown", "grace", shutdownGrace)
	}
	if err := gw.Close(); err != nil {
		logger.Error("error closing store", "err", err)
	}
	if err := os.Remove(cfg.UnixSocket()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove socket", "path", cfg.UnixSocket(), "err", err)
	}

	logger.Info("ade-omniboxd stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
