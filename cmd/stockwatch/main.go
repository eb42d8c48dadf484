package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/config"
	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"
	"github.com/mwidjaja/shopdesk/internal/redisx"
	"github.com/mwidjaja/shopdesk/internal/stockwatch"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockwatch.Service{
		Redis:       rdb,
		Log:         log,
		ServiceName: cfg.ServiceName + "-stockwatch",
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch")
	workers, err := strconv.Atoi(getenv("STOCKWATCH_WORKERS", "4"))
	if err != nil || workers < 1 {
		workers = 4
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, commerce.TopicStockAdjusted, workers, log)

	go func() {
		log.Info("stockwatch consumer started",
			zap.String("group", group), zap.String("topic", commerce.TopicStockAdjusted),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleStockAdjusted); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer")
	cancel()
}
