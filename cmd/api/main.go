package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/config"
	"github.com/mwidjaja/shopdesk/internal/customers"
	"github.com/mwidjaja/shopdesk/internal/httpx"
	"github.com/mwidjaja/shopdesk/internal/inventory"
	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"
	"github.com/mwidjaja/shopdesk/internal/orders"
	"github.com/mwidjaja/shopdesk/internal/postgres"
	"github.com/mwidjaja/shopdesk/internal/redisx"
	"github.com/mwidjaja/shopdesk/internal/returns"
	"github.com/mwidjaja/shopdesk/internal/tenant"
)

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMax)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, commerce.TopicOrderCreated, 1024, log)
	pCreated.Start(ctx)
	pOrderStatus := kafkax.NewProducer(cfg.KafkaBrokers, commerce.TopicOrderStatus, 1024, log)
	pOrderStatus.Start(ctx)
	pReturnStatus := kafkax.NewProducer(cfg.KafkaBrokers, commerce.TopicReturnStatus, 1024, log)
	pReturnStatus.Start(ctx)
	pStock := kafkax.NewProducer(cfg.KafkaBrokers, commerce.TopicStockAdjusted, 1024, log)
	pStock.Start(ctx)

	storeRepo := &postgres.StoreRepo{DB: db}
	customerRepo := &postgres.CustomerRepo{DB: db}
	productRepo := &postgres.ProductRepo{DB: db}
	orderRepo := &postgres.OrderRepo{DB: db}
	returnRepo := &postgres.ReturnRepo{DB: db}

	resolver := customers.NewResolver(customerRepo, log)
	ledger := inventory.NewLedger(productRepo, pStock, log, cfg.ServiceName, cfg.StrictStock)
	orderSvc := orders.NewService(orderRepo, resolver, ledger, pCreated, pOrderStatus, log, cfg.ServiceName)
	returnSvc := returns.NewService(returnRepo, orderRepo, ledger, pReturnStatus, log, cfg.ServiceName)

	router := httpx.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(storeRepo))
		(&httpx.OrdersHandler{Service: orderSvc, Redis: rdb}).Register(r)
		(&httpx.ReturnsHandler{Service: returnSvc, Redis: rdb}).Register(r)
		(&httpx.CustomersHandler{Customers: customerRepo}).Register(r)
		(&httpx.ProductsHandler{Catalog: productRepo, Ledger: ledger}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	for _, p := range []*kafkax.Producer{pCreated, pOrderStatus, pReturnStatus, pStock} {
		p.Close()
	}
	for _, p := range []*kafkax.Producer{pCreated, pOrderStatus, pReturnStatus, pStock} {
		p.WaitClosed()
	}
}
