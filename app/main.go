package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newsreader/app/api"
	"github.com/lysyi3m/newsreader/app/articlecache"
	"github.com/lysyi3m/newsreader/app/cfg"
	"github.com/lysyi3m/newsreader/app/client"
	"github.com/lysyi3m/newsreader/app/database"
	"github.com/lysyi3m/newsreader/app/feed"
	"github.com/lysyi3m/newsreader/app/newsroom"
	"github.com/lysyi3m/newsreader/app/summary"
	"github.com/lysyi3m/newsreader/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting NewsReader", "version", appCfg.Version, "port", appCfg.Port)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", configCache.Len(), "enabled", len(configCache.Enabled()))

	handoff, err := articlecache.New(appCfg.HandoffCacheSize)
	if err != nil {
		slog.Error("Failed to create article cache", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	newsClient := client.NewNewsClient(appCfg.NewsAPIURL, httpClient, appCfg.UserAgent)
	summaryClient := summary.NewClient(appCfg.SummaryAPIURL, appCfg.SummaryAPIKey, nil, appCfg.SummaryRateLimit)
	if !summaryClient.Enabled() {
		slog.Warn("Summaries disabled (SUMMARY_API_KEY not set)")
	}

	articleRepo := database.NewArticleRepository(db, appCfg.ArticleCacheLimit)
	service := newsroom.NewService(newsClient, summaryClient, newsroom.Repositories{
		Articles:   articleRepo,
		History:    database.NewHistoryRepository(db, appCfg.HistoryLimit),
		Favorites:  database.NewFavoriteRepository(db, appCfg.FavoriteLimit),
		Summaries:  database.NewSummaryRepository(db, appCfg.SummaryLimit),
		Categories: database.NewCategoryRepository(db),
		Profile:    database.NewProfileRepository(db),
	}, handoff, newsroom.Options{
		PageSize:     appCfg.NewsPageSize,
		SummaryModel: appCfg.SummaryModel,
		MaxTokens:    appCfg.SummaryMaxTokens,
	})

	scheduler := tasks.NewScheduler(configCache, service, httpClient,
		feed.NewParser(), feed.NewFilterer(), feed.NewContentExtractor())
	scheduler.Start()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", time.Duration(appCfg.SchedulerInterval)*time.Second)

	handler := api.NewHandler(service, articleRepo, configCache)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("Shutdown complete")
}
