package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"darkseer/config"
	"darkseer/internal/channel"
	"darkseer/logger"
	"darkseer/processor"
	"darkseer/stratz"
	"darkseer/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Darkseer.Name,
		"version": cfg.Darkseer.Version,
	}).Info("starting darkseer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		interval := cfg.Logging.ReportInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		logger.StartReport(ctx, log, interval)
	}

	channels := channel.NewChannels(
		cfg.Channels.RawBuffer,
		cfg.Channels.NormalizedBuffer,
		cfg.Channels.IncompleteBuffer,
	)

	go channels.StartMetricsReporting(ctx)

	store, err := writer.NewStore(cfg.Storage.Path)
	if err != nil {
		log.WithError(err).Error("failed to open store")
		os.Exit(1)
	}
	defer store.Close()

	client := stratz.NewClient(cfg)
	collector := stratz.NewCollector(cfg, client, store, channels.Raw)
	matchProcessor := processor.NewMatchProcessor(cfg, channels.Raw, channels.Norm, channels.Incomplete)
	matchWriter := writer.NewMatchWriter(cfg, store, client, channels.Norm, channels.Incomplete)

	if err := matchWriter.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start match writer")
		os.Exit(1)
	}
	if err := matchProcessor.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start match processor")
		os.Exit(1)
	}
	if err := collector.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start collector")
		os.Exit(1)
	}

	log.Info("all components started successfully")

	// A collection pass is finite: the collector closes the raw channel
	// when done and the downstream stages drain behind it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		collector.Stop()
		matchProcessor.Stop()
		channels.Close()
		matchWriter.Stop()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
		log.Info("starting graceful shutdown")
		cancel()
	case <-done:
		log.Info("collection pass completed")
	}

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("darkseer stopped")
}
