// Package returns owns the return workflow: a request filed against an
// order walks Submitted -> Approved -> Refunded (or Submitted -> Rejected),
// keeps an append-only history, and credits stock back exactly once on the
// first entry into Approved/Refunded.
package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/inventory"
	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"
)

// Store is implemented by postgres.ReturnRepo. Transition must apply the
// status write, the optional stock credit, and the history append in one
// atomic unit, conditional on the current status.
type Store interface {
	Insert(ctx context.Context, ret commerce.Return, first commerce.ReturnEvent) error
	Get(ctx context.Context, storeID, returnID string) (commerce.Return, error)
	List(ctx context.Context, storeID string) ([]commerce.Return, error)
	Transition(ctx context.Context, storeID, returnID string, from, to commerce.ReturnStatus, credit bool, entry commerce.ReturnEvent) (commerce.Product, bool, error)
}

// OrderLookup is the narrow slice of the order store needed to validate a
// return against its order.
type OrderLookup interface {
	Get(ctx context.Context, storeID, orderID string) (commerce.Order, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Returns     Store
	Orders      OrderLookup
	Ledger      *inventory.Ledger
	Producer    Publisher // commerce.return.status
	Log         *zap.Logger
	ServiceName string
	NewID       func() string
	Now         func() time.Time
}

func NewService(store Store, orders OrderLookup, ledger *inventory.Ledger, producer Publisher, log *zap.Logger, serviceName string) *Service {
	return &Service{
		Returns:     store,
		Orders:      orders,
		Ledger:      ledger,
		Producer:    producer,
		Log:         log,
		ServiceName: serviceName,
		NewID:       uuid.NewString,
		Now:         time.Now,
	}
}

// Create files a return against an order in the same store. The returned
// quantity may never exceed the order's quantity; the refund amount is the
// unit price share of what comes back.
func (s *Service) Create(ctx context.Context, storeID, orderID, reason string, returnedQuantity int) (commerce.Return, error) {
	if returnedQuantity < 1 {
		return commerce.Return{}, commerce.Validationf("returned quantity must be at least 1, got %d", returnedQuantity)
	}

	order, err := s.Orders.Get(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, commerce.ErrNotFound) {
			return commerce.Return{}, commerce.Validationf("order %s does not belong to store %s", orderID, storeID)
		}
		return commerce.Return{}, err
	}
	if returnedQuantity > order.Quantity {
		return commerce.Return{}, commerce.Validationf("returned quantity %d exceeds order quantity %d", returnedQuantity, order.Quantity)
	}

	ret := commerce.Return{
		ID:               s.NewID(),
		StoreID:          storeID,
		OrderID:          order.ID,
		CustomerID:       order.CustomerID,
		ProductID:        order.ProductID,
		Reason:           reason,
		ReturnedQuantity: returnedQuantity,
		RefundCents:      order.UnitPriceCents * returnedQuantity,
		Status:           commerce.ReturnSubmitted,
	}
	first := commerce.ReturnEvent{
		Status: commerce.ReturnSubmitted,
		Actor:  "Customer",
		Note:   "Return request submitted",
	}
	if err := s.Returns.Insert(ctx, ret, first); err != nil {
		return commerce.Return{}, err
	}
	ret.History = []commerce.ReturnEvent{first}

	s.Log.Info("return created",
		zap.String("store_id", storeID), zap.String("return_id", ret.ID),
		zap.String("order_id", order.ID), zap.Int("quantity", returnedQuantity))
	return ret, nil
}

// UpdateStatus moves the return through its graph. Re-asserting the current
// status only appends history. Entering Approved or Refunded for the first
// time credits the returned quantity back to stock, atomically with the
// status write, and never again on later edits.
func (s *Service) UpdateStatus(ctx context.Context, storeID, returnID string, to commerce.ReturnStatus, note, actor string) (commerce.Return, error) {
	if !to.Valid() {
		return commerce.Return{}, commerce.Validationf("unknown return status %q", to)
	}

	ret, err := s.Returns.Get(ctx, storeID, returnID)
	if err != nil {
		return commerce.Return{}, err
	}
	from := ret.Status
	if !commerce.CanTransitionReturn(from, to) {
		return commerce.Return{}, commerce.InvalidTransitionf(string(from), string(to))
	}

	credit := commerce.CreditsStock(from, to) && !ret.StockCredited
	if note == "" {
		note = fmt.Sprintf("Status changed: %s -> %s", from, to)
	}
	entry := commerce.ReturnEvent{Status: to, Actor: actor, Note: note}

	product, credited, err := s.Returns.Transition(ctx, storeID, returnID, from, to, credit, entry)
	if err != nil {
		return commerce.Return{}, err
	}
	if credited {
		s.Ledger.PublishAdjusted(product, ret.ReturnedQuantity)
		s.Log.Info("return stock credited",
			zap.String("store_id", storeID), zap.String("return_id", returnID),
			zap.String("product_id", product.ID), zap.Int("quantity", ret.ReturnedQuantity))
	}

	ret.Status = to
	ret.StockCredited = ret.StockCredited || credited
	ret.History = append(ret.History, entry)

	s.publishStatus(ret, from, actor)
	s.Log.Info("return status changed",
		zap.String("store_id", storeID), zap.String("return_id", returnID),
		zap.String("from", string(from)), zap.String("to", string(to)))
	return ret, nil
}

func (s *Service) Get(ctx context.Context, storeID, returnID string) (commerce.Return, error) {
	return s.Returns.Get(ctx, storeID, returnID)
}

func (s *Service) List(ctx context.Context, storeID string) ([]commerce.Return, error) {
	return s.Returns.List(ctx, storeID)
}

func (s *Service) publishStatus(ret commerce.Return, from commerce.ReturnStatus, actor string) {
	if s.Producer == nil {
		return
	}
	env := commerce.Envelope{
		EventID:       s.NewID(),
		EventType:     commerce.EventReturnStatusChanged,
		EventVersion:  1,
		OccurredAt:    s.Now().UTC(),
		Producer:      s.ServiceName,
		StoreID:       ret.StoreID,
		CorrelationID: ret.ID,
		Payload: kafkax.MustMarshal(commerce.ReturnStatusChangedPayload{
			ReturnID:       ret.ID,
			OrderID:        ret.OrderID,
			PreviousStatus: string(from),
			CurrentStatus:  string(ret.Status),
			StockCredited:  ret.StockCredited,
			Actor:          actor,
		}),
	}
	s.Producer.Publish(commerce.PartitionKey(ret.ID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(commerce.EventReturnStatusChanged)...)
}
