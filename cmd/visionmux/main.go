package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/internal/logging"
	"github.com/menta2k/visionmux/internal/transport"
	"github.com/menta2k/visionmux/internal/uploads"
	"github.com/menta2k/visionmux/pkg/captions"
	"github.com/menta2k/visionmux/pkg/client"
	"github.com/menta2k/visionmux/pkg/health"
	"github.com/menta2k/visionmux/pkg/orchestrator"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file (defaults to the search order in internal/config)")
	production := flag.Bool("production", false, "emit JSON logs instead of the human-readable development encoder")
	flag.Parse()

	logger, err := logging.New(*production)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	uploadMgr, err := uploads.New(cfg.Server.UploadDir, cfg.Server.MaxFileSizeBytes)
	if err != nil {
		logger.Fatal("failed to initialize upload directory", zap.Error(err))
	}

	httpClient := client.NewHTTPClient(cfg.Call, logger)
	orchestr := orchestrator.New(cfg.Analyzers, httpClient, cfg.Call, logger)
	prober := health.New(httpClient, logger)

	var aggregator *captions.Aggregator
	if cfg.Similarity.Host != "" {
		aggregator = captions.New(captions.NewHTTPScorer(cfg.Similarity), logger)
	} else {
		aggregator = captions.New(nil, logger)
	}

	deps := &transport.Deps{
		Config:     cfg,
		Logger:     logger,
		Uploads:    uploadMgr,
		Orchestr:   orchestr,
		Prober:     prober,
		Aggregator: aggregator,
	}
	router := transport.NewRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Call.GlobalDeadline() + 30*time.Second,
		WriteTimeout: cfg.Call.GlobalDeadline() + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server exited")
}
