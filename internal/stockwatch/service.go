// Package stockwatch consumes stock.adjusted events and maintains a
// per-store set of low-stock product ids in Redis for dashboards to read
// without touching the database.
package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"
	"github.com/mwidjaja/shopdesk/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleStockAdjusted is wired as the kafka consumer handler.
func (s *Service) HandleStockAdjusted(ctx context.Context, m kafkago.Message) error {
	var env commerce.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != commerce.EventStockAdjusted {
		return nil
	}

	// dedup by event id; redeliveries are expected with manual commits
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[commerce.StockAdjustedPayload](env.Payload)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(redisx.KeyLowStock, env.StoreID)
	if p.LowStock {
		if err := s.Redis.SAdd(ctx, key, p.ProductID).Err(); err != nil {
			return err
		}
	} else {
		if err := s.Redis.SRem(ctx, key, p.ProductID).Err(); err != nil {
			return err
		}
	}

	s.Log.Info("low-stock snapshot updated",
		zap.String("store_id", env.StoreID), zap.String("product_id", p.ProductID),
		zap.Int("stock", p.StockQuantity), zap.Bool("low_stock", p.LowStock))
	return nil
}
