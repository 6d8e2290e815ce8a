package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skuflow/inventory-orders/internal/config"
	"github.com/skuflow/inventory-orders/internal/httpx"
	"github.com/skuflow/inventory-orders/internal/inventoryclient"
	"github.com/skuflow/inventory-orders/internal/orders"
	"github.com/skuflow/inventory-orders/internal/postgres"
	"github.com/skuflow/inventory-orders/internal/rabbit"
	"github.com/skuflow/inventory-orders/internal/redisx"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &orders.Service{
		Store:     &orders.Repo{DB: db},
		Inventory: inventoryclient.New(cfg.InventoryURL),
		Log:       logger,
	}

	// Optional event-driven stock path; off means per-item HTTP decrements.
	var pub *rabbit.Publisher
	if cfg.PublishEvents {
		pub, err = rabbit.NewPublisher(cfg.AMQPURL, orders.Exchange, 1024)
		if err != nil {
			logger.Fatal("amqp connect", zap.Error(err))
		}
		pub.Start(ctx)
		svc.Publisher = pub
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Service: svc, Cache: rdb, Log: logger}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if pub != nil {
		pub.Close() // flush buffered events, then tear down the connection
		pub.WaitClosed()
	}
}
