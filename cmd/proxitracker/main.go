package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"proxitrack/internal/config"
	"proxitrack/internal/server"
	"proxitrack/internal/watchlist"
	"proxitrack/pkg/logger"
)

func main() {
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	logger.Init()
	logger.SetLevel(logger.INFO)
	if err := logger.EnableFileLogging(logDir, "proxitrack"); err != nil {
		logger.Warnf("file logging disabled: %v", err)
	}
	defer logger.Sync()

	displayBanner()
	logger.Info("starting proxitrack device tracker")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", err)
	}

	logger.Infof("configuration loaded: http port %d, redis enabled=%v, gnss enabled=%v",
		cfg.Server.Port, cfg.Redis.Enabled, cfg.GNSS.Enabled)

	srv, err := server.New(cfg)
	if err != nil {
		logger.Fatal("failed to build server", err)
	}

	if cfg.Watchlist.JSONPath != "" {
		loadInitialWatchlist(srv, cfg)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server exited with error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", err)
	}

	logger.Info("proxitrack stopped")
}

func loadInitialWatchlist(srv *server.Server, cfg *config.Config) {
	if _, err := os.Stat(cfg.Watchlist.JSONPath); err != nil {
		return
	}
	dt := srv.Tracker()
	res, err := watchlist.Read(cfg.Watchlist.JSONPath, dt, dt.Now())
	if err != nil {
		logger.Warnf("failed to load watchlist from %s: %v", cfg.Watchlist.JSONPath, err)
		return
	}
	logger.Infof("watchlist loaded from %s: %d items, %d skipped", cfg.Watchlist.JSONPath, res.Loaded, res.Skipped)
}

func displayBanner() {
	banner := `
 ____                  _ _____               _
|  _ \ _ __ _____  ___(_)_   _| __ __ _  ___| | __
| |_) | '__/ _ \ \/ /| | | || '__/ _' |/ __| |/ /
|  _ <| | | (_) >  < | | | || | | (_| | (__|   <
|_| \_\_|  \___/_/\_\|_| |_||_|  \__,_|\___|_|\_\
`
	fmt.Println(banner)
	fmt.Printf("starting %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
