// Package inventory applies signed stock deltas and derives the low-stock
// signal. Stock is a soft signal, not a hard limit: by default a sale may
// drive it negative to flag oversold inventory, and StrictStock turns that
// into a validation error instead.
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

// ProductStore is implemented by postgres.ProductRepo. ApplyDelta must move
// stock and recompute low_stock atomically.
type ProductStore interface {
	Get(ctx context.Context, storeID, productID string) (commerce.Product, error)
	ApplyDelta(ctx context.Context, storeID, productID string, delta int, clampZero bool) (commerce.Product, error)
	SetReorderThreshold(ctx context.Context, storeID, productID string, threshold int) (commerce.Product, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Ledger struct {
	Products    ProductStore
	Producer    Publisher // commerce.stock.adjusted
	Log         *zap.Logger
	ServiceName string
	StrictStock bool
	NewID       func() string
	Now         func() time.Time
}

func NewLedger(store ProductStore, producer Publisher, log *zap.Logger, serviceName string, strict bool) *Ledger {
	return &Ledger{
		Products:    store,
		Producer:    producer,
		Log:         log,
		ServiceName: serviceName,
		StrictStock: strict,
		NewID:       uuid.NewString,
		Now:         time.Now,
	}
}

// ApplyDelta adds delta (positive or negative) to the product's stock and
// recomputes the low-stock flag.
func (l *Ledger) ApplyDelta(ctx context.Context, storeID, productID string, delta int) (commerce.Product, error) {
	p, err := l.Products.ApplyDelta(ctx, storeID, productID, delta, l.StrictStock)
	if err != nil {
		return commerce.Product{}, err
	}
	l.PublishAdjusted(p, delta)
	l.Log.Info("stock adjusted",
		zap.String("store_id", storeID), zap.String("product_id", productID),
		zap.Int("delta", delta), zap.Int("stock", p.StockQuantity), zap.Bool("low_stock", p.LowStock))
	return p, nil
}

func (l *Ledger) SetReorderThreshold(ctx context.Context, storeID, productID string, threshold int) (commerce.Product, error) {
	if threshold < 0 {
		return commerce.Product{}, commerce.Validationf("reorder threshold must not be negative")
	}
	p, err := l.Products.SetReorderThreshold(ctx, storeID, productID, threshold)
	if err != nil {
		return commerce.Product{}, err
	}
	l.PublishAdjusted(p, 0)
	return p, nil
}

// PublishAdjusted emits a stock.adjusted event for a stock move that has
// already been persisted, e.g. the in-transaction restock of an approved
// return.
func (l *Ledger) PublishAdjusted(p commerce.Product, delta int) {
	if l.Producer == nil {
		return
	}
	env := commerce.Envelope{
		EventID:       l.NewID(),
		EventType:     commerce.EventStockAdjusted,
		EventVersion:  1,
		OccurredAt:    l.Now().UTC(),
		Producer:      l.ServiceName,
		StoreID:       p.StoreID,
		CorrelationID: p.ID,
		Payload: kafkax.MustMarshal(commerce.StockAdjustedPayload{
			ProductID:     p.ID,
			Delta:         delta,
			StockQuantity: p.StockQuantity,
			LowStock:      p.LowStock,
		}),
	}
	l.Producer.Publish(commerce.PartitionKey(p.ID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(commerce.EventStockAdjusted)...)
}
