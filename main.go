package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/db"
	hhttp "heartrisk/http"
	"heartrisk/logging"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 3. Artifacts; the service does not start without a complete set
	store := ml.NewArtifactStore(cfg.Artifacts.Dir, cfg.Artifacts.Files)
	artifacts, err := store.LoadAll()
	if err != nil {
		logger.Fatal("failed to load artifacts", zap.String("dir", store.Dir()), zap.Error(err))
	}
	predictor, err := ml.NewPredictor(artifacts, ml.PredictorOptions{
		Encoder:   ml.EncoderOptions{StrictOneHotArity: cfg.Encoding.StrictOneHotArity},
		CacheSize: cfg.Cache.Size,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build predictor", zap.Error(err))
	}
	schema := predictor.Schema()
	logger.Info("artifacts loaded",
		zap.String("dir", store.Dir()),
		zap.String("model_type", schema.ModelType),
		zap.String("scaler", schema.ScalerKind),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitoring.Init()

	if cfg.Artifacts.Watch {
		watcher := ml.NewArtifactWatcher(store, predictor, ml.WatchOptions{
			Debounce: cfg.Artifacts.Debounce,
			Logger:   logger,
			OnReload: monitoring.ObserveReload,
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	// 4. Audit log
	history, err := db.OpenPredictionStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open prediction store", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer history.Close()
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	// 5. Prediction stream
	hub := monitoring.NewWebSocketHub(logger, cfg.Http.AllowedOrigins)
	go hub.Start()
	defer hub.Stop()

	// 6. HTTP server
	server := hhttp.NewServer(hhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, hhttp.Dependencies{
		Predictor: predictor,
		History:   history,
		Stream:    hub,
		Logger:    logger,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 7. Graceful shutdown
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
