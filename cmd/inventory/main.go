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
	"github.com/skuflow/inventory-orders/internal/inventory"
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

	svc := &inventory.Service{
		Store:   &inventory.Repo{DB: db},
		Applied: &redisx.AppliedSet{RDB: rdb},
		Log:     logger,
	}

	cons, err := rabbit.NewConsumer(cfg.AMQPURL, orders.Exchange, orders.Queue, orders.BindingKey, cfg.Prefetch)
	if err != nil {
		logger.Fatal("amqp connect", zap.Error(err))
	}

	go func() {
		logger.Info("consumer started",
			zap.String("queue", orders.Queue),
			zap.String("binding", orders.BindingKey))
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	router := httpx.NewRouter()
	ph := &httpx.ProductsHandler{Service: svc, Log: logger}
	ph.Register(router)

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
	cancel()
	time.Sleep(500 * time.Millisecond)
}
