package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/5g-network/nf/gnb/internal/config"
	"github.com/your-org/5g-network/nf/gnb/internal/metrics"
	"github.com/your-org/5g-network/nf/gnb/internal/server"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config/gnb.yaml", "Path to configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := initLogger(*logLevel)
	defer logger.Sync()

	logger.Info("Starting gNB scheduler core",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("cell_numerology", cfg.Cell.Numerology),
		zap.Uint16("cell_nrb", cfg.Cell.NRB),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gnbServer, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create gNB server", zap.Error(err))
	}

	var metricsServer *metrics.Server
	if cfg.Observability.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Observability.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := gnbServer.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	logger.Info("gNB started successfully",
		zap.String("address", fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errChan:
		logger.Error("Server error", zap.Error(err))
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down gNB...")
	if err := gnbServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error("Error stopping metrics server", zap.Error(err))
		}
	}

	logger.Info("gNB stopped")
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return logger
}
