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

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"compare-service/backend/internal/cache"
	"compare-service/backend/internal/compare"
	"compare-service/backend/internal/config"
	"compare-service/backend/internal/content"
	"compare-service/backend/internal/events"
	"compare-service/backend/internal/httpapi"
	"compare-service/backend/internal/httpapi/handlers"
	"compare-service/backend/internal/metrics"
	"compare-service/backend/internal/store"
	"compare-service/backend/internal/title"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("init config failed: %v", err)
	}
	gin.SetMode(cfg.Running.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, sqlDB, err := store.OpenMySQL(ctx, store.MySQLOptions{
		DSN:             cfg.MySQL.DSN,
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		AutoMigrate:     cfg.MySQL.AutoMigrate,
	})
	if err != nil {
		log.Fatalf("open mysql failed: %v", err)
	}
	defer sqlDB.Close()

	// redis 关闭时两层缓存都直接回源
	var rdb redis.UniversalClient
	if cfg.Redis.Enabled {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("ping redis failed: %v", err)
		}
		defer rdb.Close()
	}

	var publisher compare.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaCfg := sarama.NewConfig()
		// SyncProducer 必须开启 Return.Successes
		kafkaCfg.Producer.Return.Successes = true
		kafkaCfg.Producer.RequiredAcks = sarama.WaitForLocal
		producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaCfg)
		if err != nil {
			log.Fatalf("connect kafka failed: %v", err)
		}
		defer producer.Close()

		dispatcher := events.NewDispatcher(producer, cfg.Kafka.Topic, events.DispatcherOptions{
			QueueSize:   cfg.Dispatcher.QueueSize,
			Workers:     cfg.Dispatcher.Workers,
			MaxInFlight: cfg.Dispatcher.MaxInFlight,
			MaxRetry:    cfg.Dispatcher.MaxRetry,
			BaseBackoff: cfg.Dispatcher.BaseBackoff,
			MaxBackoff:  cfg.Dispatcher.MaxBackoff,
			OnDrop: func(events.DiffViewedEvent, error) {
				metrics.EventsDropped.Inc()
			},
		})
		// 先于 producer.Close 执行，排空队列
		defer dispatcher.Close()
		publisher = dispatcher
	}

	revisionStore := store.NewRevisionStore(db)
	contentStore := store.NewContentStore(sqlDB)
	pageCache := cache.NewPageCache(rdb, revisionStore, cache.TTLPolicy{
		Base:   cfg.Cache.PageTTL,
		Jitter: cfg.Cache.PageJitter,
		Null:   cfg.Cache.PageNull,
	})
	diffCache := cache.NewDiffCache(rdb, cache.TTLPolicy{
		Base:   cfg.Cache.DiffTTL,
		Jitter: cfg.Cache.DiffJitter,
	})

	registry := content.NewRegistry(content.Deps{
		Revisions:    revisionStore,
		Contents:     contentStore,
		Cache:        diffCache,
		ContextLines: cfg.Content.ContextLines,
	}, cfg.Content.FallbackToText)
	log.WithField("models", registry.Models()).Info("content handlers registered")

	svc := compare.NewService(
		revisionStore,
		compare.NewTitleResolver(title.NewParser(cfg.Title.CapitalLinks), pageCache),
		registry,
		publisher,
	)

	router := httpapi.NewRouter(handlers.NewCompareHandler(svc), httpapi.RouterOptions{
		EnableCORS: cfg.CORS.Enabled || os.Getenv("COMPARE_ENABLE_CORS") == "1",
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Running.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("compare server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
}
