// Package orders owns the order lifecycle: creation with customer
// resolution and stock decrement, status transitions with timeline and
// payment-state derivation, and quantity edits with total recompute.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/inventory"
	kafkax "github.com/mwidjaja/shopdesk/internal/kafka"
)

// Store is implemented by postgres.OrderRepo. UpdateStatus must be
// conditional on the current status.
type Store interface {
	Insert(ctx context.Context, o commerce.Order, first commerce.TimelineEntry) error
	Get(ctx context.Context, storeID, orderID string) (commerce.Order, error)
	List(ctx context.Context, storeID string) ([]commerce.Order, error)
	UpdateStatus(ctx context.Context, storeID, orderID string, from, to commerce.OrderStatus, isPaid bool, paymentStatus string, entry commerce.TimelineEntry) error
	UpdateQuantity(ctx context.Context, storeID, orderID string, quantity, totalCents int) error
}

// Resolver matches the customers.Resolver surface.
type Resolver interface {
	Resolve(ctx context.Context, storeID string, in commerce.ContactBundle) (commerce.Customer, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type CreateOrderInput struct {
	Contact         commerce.ContactBundle
	ProductID       string
	Quantity        int
	Notes           string
	ShippingAddress string
}

type Service struct {
	Orders      Store
	Customers   Resolver
	Ledger      *inventory.Ledger
	Producer    Publisher // commerce.order.created
	StatusProd  Publisher // commerce.order.status
	Log         *zap.Logger
	ServiceName string
	NewID       func() string
	Now         func() time.Time
}

func NewService(store Store, resolver Resolver, ledger *inventory.Ledger, created, status Publisher, log *zap.Logger, serviceName string) *Service {
	return &Service{
		Orders:      store,
		Customers:   resolver,
		Ledger:      ledger,
		Producer:    created,
		StatusProd:  status,
		Log:         log,
		ServiceName: serviceName,
		NewID:       uuid.NewString,
		Now:         time.Now,
	}
}

// Create resolves or creates the customer first; that write stands on its
// own even when the order is subsequently rejected. Contact fields are
// snapshotted onto the order so later customer edits do not rewrite
// history. Stock is decremented here and nowhere else in the lifecycle.
func (s *Service) Create(ctx context.Context, storeID string, in CreateOrderInput) (commerce.Order, error) {
	if in.Quantity < 1 {
		return commerce.Order{}, commerce.Validationf("quantity must be at least 1, got %d", in.Quantity)
	}

	customer, err := s.Customers.Resolve(ctx, storeID, in.Contact)
	if err != nil {
		return commerce.Order{}, err
	}

	product, err := s.Ledger.Products.Get(ctx, storeID, in.ProductID)
	if err != nil {
		// store-scoped lookup: a product owned by another store is
		// indistinguishable from a missing one, and both are input errors
		return commerce.Order{}, commerce.Validationf("product %s does not belong to store %s", in.ProductID, storeID)
	}

	if _, err := s.Ledger.ApplyDelta(ctx, storeID, product.ID, -in.Quantity); err != nil {
		return commerce.Order{}, err
	}

	shipping := in.ShippingAddress
	if shipping == "" {
		shipping = customer.Address
	}
	isPaid, payStatus := commerce.PaymentStateFor(commerce.OrderPending)
	order := commerce.Order{
		ID:              s.NewID(),
		StoreID:         storeID,
		CustomerID:      customer.ID,
		ProductID:       product.ID,
		ProductName:     product.Name,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		ShippingAddress: shipping,
		Quantity:        in.Quantity,
		UnitPriceCents:  product.PriceCents,
		TotalCents:      product.PriceCents * in.Quantity,
		Status:          commerce.OrderPending,
		IsPaid:          isPaid,
		PaymentStatus:   payStatus,
		Notes:           in.Notes,
	}
	first := commerce.TimelineEntry{Description: "Order created", Actor: customer.Name}

	if err := s.Orders.Insert(ctx, order, first); err != nil {
		// give the reserved stock back; the order never existed
		if _, cerr := s.Ledger.ApplyDelta(ctx, storeID, product.ID, in.Quantity); cerr != nil {
			s.Log.Error("stock compensation failed after order insert error",
				zap.String("product_id", product.ID), zap.Error(cerr))
		}
		return commerce.Order{}, err
	}
	order.Timeline = []commerce.TimelineEntry{first}

	s.publishCreated(order)
	s.Log.Info("order created",
		zap.String("store_id", storeID), zap.String("order_id", order.ID),
		zap.String("customer_id", customer.ID), zap.Int("total_cents", order.TotalCents))
	return order, nil
}

// UpdateStatus validates the transition against the lifecycle graph,
// appends a timeline entry, and re-derives the payment state from the new
// status.
func (s *Service) UpdateStatus(ctx context.Context, storeID, orderID string, to commerce.OrderStatus, actor string) (commerce.Order, error) {
	if !to.Valid() {
		return commerce.Order{}, commerce.Validationf("unknown order status %q", to)
	}

	order, err := s.Orders.Get(ctx, storeID, orderID)
	if err != nil {
		return commerce.Order{}, err
	}
	from := order.Status
	if !commerce.CanTransitionOrder(from, to) {
		return commerce.Order{}, commerce.InvalidTransitionf(string(from), string(to))
	}

	isPaid, payStatus := commerce.PaymentStateFor(to)
	entry := commerce.TimelineEntry{
		Description: fmt.Sprintf("Status changed: %s -> %s", from, to),
		Actor:       actor,
	}
	if err := s.Orders.UpdateStatus(ctx, storeID, orderID, from, to, isPaid, payStatus, entry); err != nil {
		return commerce.Order{}, err
	}

	order.Status = to
	order.IsPaid = isPaid
	order.PaymentStatus = payStatus
	order.Timeline = append(order.Timeline, entry)

	s.publishStatus(order, from, actor)
	s.Log.Info("order status changed",
		zap.String("store_id", storeID), zap.String("order_id", orderID),
		zap.String("from", string(from)), zap.String("to", string(to)))
	return order, nil
}

// UpdateQuantity recomputes the total from the stored unit price. Inventory
// is deliberately untouched: stock moves only at creation and on return
// approval.
func (s *Service) UpdateQuantity(ctx context.Context, storeID, orderID string, quantity int) (commerce.Order, error) {
	if quantity < 1 {
		return commerce.Order{}, commerce.Validationf("quantity must be at least 1, got %d", quantity)
	}

	order, err := s.Orders.Get(ctx, storeID, orderID)
	if err != nil {
		return commerce.Order{}, err
	}
	total := order.UnitPriceCents * quantity
	if err := s.Orders.UpdateQuantity(ctx, storeID, orderID, quantity, total); err != nil {
		return commerce.Order{}, err
	}
	order.Quantity = quantity
	order.TotalCents = total
	return order, nil
}

func (s *Service) Get(ctx context.Context, storeID, orderID string) (commerce.Order, error) {
	return s.Orders.Get(ctx, storeID, orderID)
}

func (s *Service) List(ctx context.Context, storeID string) ([]commerce.Order, error) {
	return s.Orders.List(ctx, storeID)
}

func (s *Service) publishCreated(o commerce.Order) {
	if s.Producer == nil {
		return
	}
	env := commerce.Envelope{
		EventID:       s.NewID(),
		EventType:     commerce.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    s.Now().UTC(),
		Producer:      s.ServiceName,
		StoreID:       o.StoreID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(commerce.OrderCreatedPayload{
			OrderID:    o.ID,
			CustomerID: o.CustomerID,
			ProductID:  o.ProductID,
			Quantity:   o.Quantity,
			TotalCents: o.TotalCents,
		}),
	}
	s.Producer.Publish(commerce.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(commerce.EventOrderCreated)...)
}

func (s *Service) publishStatus(o commerce.Order, from commerce.OrderStatus, actor string) {
	if s.StatusProd == nil {
		return
	}
	env := commerce.Envelope{
		EventID:       s.NewID(),
		EventType:     commerce.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    s.Now().UTC(),
		Producer:      s.ServiceName,
		StoreID:       o.StoreID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(commerce.OrderStatusChangedPayload{
			OrderID:        o.ID,
			PreviousStatus: string(from),
			CurrentStatus:  string(o.Status),
			Actor:          actor,
		}),
	}
	s.StatusProd.Publish(commerce.PartitionKey(o.ID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(commerce.EventOrderStatusChanged)...)
}
