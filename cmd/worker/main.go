package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/barlacteo/storefront/internal/config"
	"github.com/barlacteo/storefront/internal/events"
	kafkax "github.com/barlacteo/storefront/internal/kafka"
	"github.com/barlacteo/storefront/internal/kv"
	"github.com/barlacteo/storefront/internal/logx"
	"github.com/barlacteo/storefront/internal/orders"
	"github.com/barlacteo/storefront/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(logx.Options{Service: "storefront-worker", Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	store, cleanup, err := openOrdersStore(ctx, cfg)
	if err != nil {
		log.Error("open orders store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer cleanup()

	w := &orders.Worker{Ledger: orders.NewLedger(store)}

	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, "storefront-worker", events.TopicCheckoutStarted, 4)
	log.Info("consuming", "topic", events.TopicCheckoutStarted, "brokers", cfg.KafkaBrokers)
	if err := consumer.Start(ctx, w.HandleCheckoutStarted); err != nil {
		log.Error("consumer stopped", "err", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

func openOrdersStore(ctx context.Context, cfg config.Config) (kv.Store, func(), error) {
	const name = "orders_store"
	switch cfg.StoreBackend {
	case "memory":
		return kv.NewMemory(), func() {}, nil
	case "file":
		s, err := kv.OpenFile(filepath.Join(cfg.StoreDir, name+".json"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "redis":
		rdb := kv.NewRedisClient(cfg.RedisAddr)
		return kv.NewRedis(rdb, name), func() { _ = rdb.Close() }, nil
	case "postgres":
		pool, err := kv.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := kv.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return kv.NewPostgres(pool, name), func() { pool.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
