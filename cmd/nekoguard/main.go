package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nekoguard/internal/bot"
	"nekoguard/internal/catalog"
	"nekoguard/internal/config"
	"nekoguard/internal/filter"
	"nekoguard/internal/modules/audit"
	"nekoguard/internal/modules/wordfilter"
	"nekoguard/internal/policy"
	"nekoguard/internal/storage"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flagSet := pflag.NewFlagSet("nekoguard", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML config file (default: $CONFIG_PATH or config.yaml)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}

	store, err := storage.New(ctx, backend, logger)
	if err != nil {
		logger.Fatal("word filter store init failed", zap.Error(err))
	}
	defer store.Close()

	catalogFiles, err := storage.NewFileBackend(cfg.Catalog.Dir)
	if err != nil {
		logger.Fatal("catalog dir init failed", zap.Error(err))
	}
	images, err := catalog.Open(ctx, catalogFiles, catalog.Options{
		LocalBaseURL:    cfg.Catalog.LocalBaseURL,
		LocalX10BaseURL: cfg.Catalog.LocalX10BaseURL,
		CatboyBaseURL:   cfg.Catalog.CatboyBaseURL,
		ShuffleInterval: time.Duration(cfg.Catalog.ShuffleMinutes) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("catalog init failed", zap.Error(err))
	}
	go images.Run(ctx)

	auditLogger := audit.NewLogger(logger)
	matcher := filter.NewMatcher(time.Duration(cfg.Filter.MatchTimeoutMillis) * time.Millisecond)
	filterPolicy := policy.New(store, cfg.RolesFor)
	filterModule := wordfilter.New(store, filterPolicy, matcher, auditLogger, logger, time.Duration(cfg.Filter.NoticeSeconds)*time.Second)

	botSvc, err := bot.New(cfg, logger, store, images, filterModule, auditLogger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started", zap.String("storage", cfg.Storage.Backend))

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	botSvc.Close(shutdownCtx)
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		backend, err := storage.NewPostgresBackend(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := backend.Migrate(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		logger.Info("using postgres document storage")
		return backend, nil
	default:
		logger.Info("using file document storage", zap.String("dir", cfg.WordFilterDir()))
		backend, err := storage.NewFileBackend(cfg.WordFilterDir())
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
}
