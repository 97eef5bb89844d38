package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/ken-b2024/ecommerce-api/internal/config"
	"github.com/ken-b2024/ecommerce-api/internal/httpserver"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/service"
	"github.com/ken-b2024/ecommerce-api/pkg/cache"
	pkgdb "github.com/ken-b2024/ecommerce-api/pkg/db"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	var productCache cache.Cache = cache.Noop{}
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = cache.NewRedis(ctx, cfg.Redis())
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		productCache = &cache.RedisCache{Client: rdb}
		logger.Info("product_cache_enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProductCacheTTL.String())
	}

	var events mykafka.Publisher = mykafka.Noop{}
	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = mykafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		events = prod
		logger.Info("event_publisher_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	r := &repo.GormRepo{DB: db}
	products := &service.ProductCache{Cache: productCache, TTL: cfg.ProductCacheTTL}

	e := echo.New()
	e.HideBanner = true
	httpserver.Use(e, logger, cfg.RateLimitRPS)

	httpserver.Register(e, &httpserver.Deps{
		DB:             r,
		UserHandler:    &httpserver.UserHTTP{Svc: &service.UserService{Repo: r, Events: events}},
		AccountHandler: &httpserver.AccountHTTP{Svc: &service.AccountService{Repo: r}},
		ProductHandler: &httpserver.ProductHTTP{Svc: &service.ProductService{Repo: r, Cache: products, Events: events}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Products: products, Events: events}},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
