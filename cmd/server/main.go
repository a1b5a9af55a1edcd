package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/barlacteo/storefront/internal/accounts"
	"github.com/barlacteo/storefront/internal/cart"
	"github.com/barlacteo/storefront/internal/catalog"
	"github.com/barlacteo/storefront/internal/checkout"
	"github.com/barlacteo/storefront/internal/config"
	"github.com/barlacteo/storefront/internal/events"
	"github.com/barlacteo/storefront/internal/httpx"
	kafkax "github.com/barlacteo/storefront/internal/kafka"
	"github.com/barlacteo/storefront/internal/kv"
	"github.com/barlacteo/storefront/internal/logx"
	"github.com/barlacteo/storefront/internal/orders"
	"github.com/barlacteo/storefront/internal/profile"
	"github.com/barlacteo/storefront/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(logx.Options{Service: cfg.ServiceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := openStores(ctx, cfg, "cart_store", "accounts_prefs", "profile_prefs", "orders_store")
	if err != nil {
		log.Error("open stores", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer cleanup()

	cartRepo := cart.NewRepository(cart.NewStore(stores["cart_store"]))
	accountRepo := accounts.NewRepository(stores["accounts_prefs"])
	profileStore := profile.NewStore(stores["profile_prefs"])
	ledger := orders.NewLedger(stores["orders_store"])

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, nil)
	usersClient := users.NewClient(cfg.UsersBaseURL, nil)

	var prod *kafkax.Producer
	co := &checkout.Service{
		Users:   usersClient,
		Carts:   cartRepo,
		Service: cfg.ServiceName,
	}
	if cfg.KafkaEnabled {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, events.TopicCheckoutStarted, 1024)
		prod.Start(ctx)
		co.Producer = prod
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Carts:    cartRepo,
		Accounts: accountRepo,
		Profile:  profileStore,
		Catalog:  catalogClient,
		History:  usersClient,
		Checkout: co,
		Updater:  usersClient,
		Ledger:   ledger,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	if prod != nil {
		prod.Close()
		cancel()
		prod.WaitClosed()
	}
}

// openStores builds one kv store per name on the configured backend and
// returns a cleanup for the shared client/pool behind them.
func openStores(ctx context.Context, cfg config.Config, names ...string) (map[string]kv.Store, func(), error) {
	stores := make(map[string]kv.Store, len(names))
	cleanup := func() {}

	switch cfg.StoreBackend {
	case "memory":
		for _, n := range names {
			stores[n] = kv.NewMemory()
		}
	case "file":
		for _, n := range names {
			s, err := kv.OpenFile(filepath.Join(cfg.StoreDir, n+".json"))
			if err != nil {
				return nil, nil, err
			}
			stores[n] = s
		}
	case "redis":
		rdb := kv.NewRedisClient(cfg.RedisAddr)
		for _, n := range names {
			stores[n] = kv.NewRedis(rdb, n)
		}
		cleanup = func() { _ = rdb.Close() }
	case "postgres":
		pool, err := kv.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := kv.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		for _, n := range names {
			stores[n] = kv.NewPostgres(pool, n)
		}
		cleanup = func() { pool.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return stores, cleanup, nil
}
