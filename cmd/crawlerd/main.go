// Command crawlerd is the crawler daemon: an HTTP API over page-structure
// analysis, locator-set synthesis and paginated crawl sessions.
//
// Usage:
//
//	crawlerd -config crawler.yaml
//	crawlerd -addr :8080 -db crawler.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/junqing258/crawler-assistant/api"
	"github.com/junqing258/crawler-assistant/browser"
	"github.com/junqing258/crawler-assistant/config"
	"github.com/junqing258/crawler-assistant/crawl"
	"github.com/junqing258/crawler-assistant/observability"
	"github.com/junqing258/crawler-assistant/store"
)

func main() {
	configPath := flag.String("config", "", "path to crawler.yaml config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "sqlite database path (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	noBrowser := flag.Bool("no-browser", false, "run without Chrome (inline-HTML analysis only)")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "crawlerd: %v\n", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *noBrowser); err != nil {
		logger.Error("crawlerd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, noBrowser bool) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := observability.Init(st.DB()); err != nil {
		return fmt.Errorf("monitoring schema: %w", err)
	}
	hb := observability.NewHeartbeatWriter(st.DB(), "crawlerd", 15*time.Second)
	hb.Start(ctx)
	observability.StartJanitor(ctx, st.DB(), observability.DefaultRetention(), func(err error) {
		logger.Warn("crawlerd: retention cleanup failed", "error", err)
	})

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithBaseContext(ctx),
		api.WithCrawlConfig(crawl.Config{
			PageCap:  cfg.Crawl.PageCap,
			DelayMin: cfg.Crawl.DelayMin(),
			DelayMax: cfg.Crawl.DelayMax(),
		}),
	}

	if !noBrowser {
		mgr := browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.RemoteURL,
			Headless:         cfg.Browser.Headless,
			RecycleInterval:  cfg.Browser.RecycleInterval(),
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Logger:           logger,
		})
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("start browser: %w", err)
		}
		defer mgr.Close()

		if cfg.ScreenshotDir != "" {
			if err := os.MkdirAll(cfg.ScreenshotDir, 0o755); err != nil {
				return fmt.Errorf("screenshot dir: %w", err)
			}
		}
		loader := browser.NewLoader(mgr, browser.LoaderConfig{
			NavTimeout:    cfg.Browser.NavTimeout(),
			ScreenshotDir: cfg.ScreenshotDir,
			Logger:        logger,
		})
		opts = append(opts, api.WithLoader(loader))
	}

	svc := api.NewService(st, opts...)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("crawlerd: listening", "addr", cfg.Listen, "browser", !noBrowser)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("crawlerd: shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
