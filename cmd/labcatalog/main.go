package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labcatalog/internal/auth"
	"labcatalog/internal/common/logger"
	"labcatalog/internal/common/mqtt"
	"labcatalog/internal/config"
	httpapi "labcatalog/internal/http"
	"labcatalog/internal/notify"
	"labcatalog/internal/repository"
	"labcatalog/internal/service"
	"labcatalog/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "labcatalog")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := store.Open(ctx, cfg.Store.Backend, &cfg.Database, &cfg.SQLite)
	if err != nil {
		log.Fatal("failed to open document store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer docs.Close()
	log.Info("document store ready", zap.String("backend", cfg.Store.Backend))

	// Optional Redis cache for search results and panel groups
	var kv store.KV
	if cfg.Redis.Enabled {
		rc, err := store.DialRedis(ctx, &cfg.Redis.RedisConfig)
		if err != nil {
			log.Warn("redis enabled but unreachable, caching disabled", zap.Error(err))
		} else {
			defer rc.Close()
			kv = store.NewRedisKV(rc)
		}
	}

	var sinks []notify.Publisher
	if cfg.MQTT.Enabled {
		mc, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig)
		if err != nil {
			log.Warn("mqtt enabled but connection failed, events not published", zap.Error(err))
		} else {
			defer mc.Disconnect()
			sinks = append(sinks, notify.NewMQTTPublisher(mc, cfg.MQTT.TopicPrefix))
		}
	}
	if cfg.Webhook.URL != "" {
		sinks = append(sinks, notify.NewWebhookPublisher(cfg.Webhook.URL))
	}
	events := notify.NewFanout(log, sinks...)

	gate, err := auth.NewGate(cfg.Auth.Mode, cfg.Auth.JWTSecret, cfg.Auth.CookieName)
	if err != nil {
		log.Fatal("invalid auth configuration", zap.Error(err))
	}

	repo := repository.New(docs)
	resolver := service.NewResolver(repo, repo, log)
	search := service.NewSearchService(repo, kv, cfg.CacheTTL, log)
	handler := httpapi.NewHandler(httpapi.Services{
		Catalog:   service.NewCatalogService(repo, resolver, search, log),
		Resolver:  resolver,
		Search:    search,
		Notes:     service.NewNoteService(repo, repo, events, log),
		Transfer:  service.NewTransferService(repo, resolver, search, events, log),
		Trainings: service.NewTrainingService(repo, events, log),
	}, gate, httpapi.NewMetrics(), cfg.IsProduction(), log)

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}
}
