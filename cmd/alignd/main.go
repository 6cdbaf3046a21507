package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"alignd/internal/align"
	"alignd/internal/cache"
	"alignd/internal/common/fsutil"
	"alignd/internal/config"
	"alignd/internal/httpapi"
	"alignd/internal/loader"
	"alignd/internal/registry"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("ALIGND_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	modelsDir := flag.String("models-dir", envOr("ALIGND_MODELS_DIR", "~/models/assets"), "Directory to scan for 3D asset files")
	dbPath := flag.String("db", envOr("ALIGND_DB", "alignd.db"), "SQLite database path for committed placements")
	cacheBudget := flag.Int("cache-budget", 0, "Cost budget for resident assets (0=unlimited)")
	cacheMargin := flag.Int("cache-margin", 0, "Reserved cost headroom below the budget")
	configPath := flag.String("config", envOr("ALIGND_CONFIG", ""), "Optional config file (yaml, json or toml); flags win over file values")
	logLevel := flag.String("log-level", envOr("ALIGND_LOG_LEVEL", "info"), "Log level: off, error, info, debug")
	flag.Parse()

	// Config file fills in anything the flags left at defaults.
	if *configPath != "" {
		fileCfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
		if fileCfg.Addr != "" && !flagSet("addr") {
			*addr = fileCfg.Addr
		}
		if fileCfg.ModelsDir != "" && !flagSet("models-dir") {
			*modelsDir = fileCfg.ModelsDir
		}
		if fileCfg.DBPath != "" && !flagSet("db") {
			*dbPath = fileCfg.DBPath
		}
		if fileCfg.CacheBudget > 0 && !flagSet("cache-budget") {
			*cacheBudget = fileCfg.CacheBudget
		}
		if fileCfg.CacheMargin > 0 && !flagSet("cache-margin") {
			*cacheMargin = fileCfg.CacheMargin
		}
		if fileCfg.LogLevel != "" && !flagSet("log-level") {
			*logLevel = fileCfg.LogLevel
		}
		prefetchIDs = fileCfg.Prefetch
	}

	zl := newLogger(*logLevel)
	httpapi.SetLogger(zl)

	dir, err := fsutil.ExpandHome(*modelsDir)
	if err != nil {
		log.Fatalf("invalid models dir: %v", err)
	}
	idx, err := registry.OpenDir(dir)
	if err != nil {
		log.Fatalf("failed to scan models: %v", err)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	httpapi.SetBaseContext(rootCtx)

	store, err := registry.OpenStore(rootCtx, *dbPath)
	if err != nil {
		log.Fatalf("failed to open placement store: %v", err)
	}
	defer store.Close()

	cch := cache.New(cache.Config{
		Source:     idx,
		Loader:     loader.NewFileLoader(idx, zl),
		BudgetCost: *cacheBudget,
		MarginCost: *cacheMargin,
		Logger:     zl,
	})

	ctl := align.New(align.Config{
		Cache:      cch,
		Metadata:   idx,
		Placements: store,
		Logger:     zl,
	})

	mux := httpapi.NewMux(httpapi.Deps{
		Models:     idx,
		Cache:      cch,
		Align:      ctl,
		Placements: store,
		Start:      time.Now(),
	})
	srv := &http.Server{Addr: *addr, Handler: mux}

	// Warm configured assets in the background once serving.
	if len(prefetchIDs) > 0 {
		go func() {
			if err := cch.Prefetch(rootCtx, prefetchIDs...); err != nil {
				zl.Warn().Err(err).Msg("startup prefetch failed")
			}
		}()
	}

	go func() {
		zl.Info().Str("addr", *addr).Str("models_dir", dir).Int("models", len(idx.List())).Msg("alignd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	rootCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

// prefetchIDs comes from the config file; there is no flag equivalent.
var prefetchIDs []string

// flagSet reports whether the named flag was provided on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// newLogger builds the process logger at the requested level.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "off" {
		lvl = zerolog.Disabled
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("service", "alignd").Logger()
}
