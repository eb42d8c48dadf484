package returns

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/inventory"
)

type fakeProductStore struct {
	mu   sync.Mutex
	byID map[string]commerce.Product
}

func newFakeProductStore(products ...commerce.Product) *fakeProductStore {
	f := &fakeProductStore{byID: map[string]commerce.Product{}}
	for _, p := range products {
		f.byID[p.StoreID+"/"+p.ID] = p
	}
	return f
}

func (f *fakeProductStore) Get(_ context.Context, storeID, productID string) (commerce.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[storeID+"/"+productID]
	if !ok {
		return commerce.Product{}, commerce.NotFoundf("product %s", productID)
	}
	return p, nil
}

func (f *fakeProductStore) ApplyDelta(_ context.Context, storeID, productID string, delta int, _ bool) (commerce.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[storeID+"/"+productID]
	if !ok {
		return commerce.Product{}, commerce.NotFoundf("product %s", productID)
	}
	p.StockQuantity += delta
	p.LowStock = p.StockQuantity <= p.ReorderThreshold
	f.byID[storeID+"/"+productID] = p
	return p, nil
}

func (f *fakeProductStore) SetReorderThreshold(_ context.Context, storeID, productID string, threshold int) (commerce.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.byID[storeID+"/"+productID]
	p.ReorderThreshold = threshold
	p.LowStock = p.StockQuantity <= threshold
	f.byID[storeID+"/"+productID] = p
	return p, nil
}

// fakeReturnStore mirrors the repo's transaction semantics: the status
// write is conditional on the current status, the credit happens at most
// once, and both land together with the history append.
type fakeReturnStore struct {
	mu       sync.Mutex
	byID     map[string]commerce.Return
	products *fakeProductStore
}

func newFakeReturnStore(products *fakeProductStore) *fakeReturnStore {
	return &fakeReturnStore{byID: map[string]commerce.Return{}, products: products}
}

func (f *fakeReturnStore) Insert(_ context.Context, ret commerce.Return, first commerce.ReturnEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret.History = []commerce.ReturnEvent{first}
	f.byID[ret.StoreID+"/"+ret.ID] = ret
	return nil
}

func (f *fakeReturnStore) Get(_ context.Context, storeID, returnID string) (commerce.Return, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret, ok := f.byID[storeID+"/"+returnID]
	if !ok {
		return commerce.Return{}, commerce.NotFoundf("return %s", returnID)
	}
	return ret, nil
}

func (f *fakeReturnStore) List(_ context.Context, storeID string) ([]commerce.Return, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []commerce.Return
	for _, ret := range f.byID {
		if ret.StoreID == storeID {
			out = append(out, ret)
		}
	}
	return out, nil
}

func (f *fakeReturnStore) Transition(ctx context.Context, storeID, returnID string, from, to commerce.ReturnStatus, credit bool, entry commerce.ReturnEvent) (commerce.Product, bool, error) {
	f.mu.Lock()
	ret, ok := f.byID[storeID+"/"+returnID]
	if !ok {
		f.mu.Unlock()
		return commerce.Product{}, false, commerce.NotFoundf("return %s", returnID)
	}
	if ret.Status != from || (credit && ret.StockCredited) {
		f.mu.Unlock()
		return commerce.Product{}, false, commerce.ErrConflict
	}
	ret.Status = to
	ret.StockCredited = ret.StockCredited || credit
	ret.History = append(ret.History, entry)
	f.byID[storeID+"/"+returnID] = ret
	f.mu.Unlock()

	var product commerce.Product
	if credit {
		var err error
		product, err = f.products.ApplyDelta(ctx, storeID, ret.ProductID, ret.ReturnedQuantity, false)
		if err != nil {
			return commerce.Product{}, false, err
		}
	}
	return product, credit, nil
}

type fakeOrderLookup struct {
	byID map[string]commerce.Order
}

func (f *fakeOrderLookup) Get(_ context.Context, storeID, orderID string) (commerce.Order, error) {
	o, ok := f.byID[storeID+"/"+orderID]
	if !ok {
		return commerce.Order{}, commerce.NotFoundf("order %s", orderID)
	}
	return o, nil
}

type testHarness struct {
	svc      *Service
	products *fakeProductStore
	returns  *fakeReturnStore
}

func newHarness(orders ...commerce.Order) *testHarness {
	products := newFakeProductStore(commerce.Product{
		ID: "p1", StoreID: "s1", Name: "Mug", PriceCents: 5000, StockQuantity: 0, ReorderThreshold: 2,
	})
	store := newFakeReturnStore(products)
	lookup := &fakeOrderLookup{byID: map[string]commerce.Order{}}
	for _, o := range orders {
		lookup.byID[o.StoreID+"/"+o.ID] = o
	}
	ledger := inventory.NewLedger(products, nil, zap.NewNop(), "test", false)
	svc := NewService(store, lookup, ledger, nil, zap.NewNop(), "test")
	svc.NewID = func() string { return "ret-1" }
	return &testHarness{svc: svc, products: products, returns: store}
}

func testOrder() commerce.Order {
	return commerce.Order{
		ID: "o1", StoreID: "s1", CustomerID: "cust-1", ProductID: "p1",
		Quantity: 1, UnitPriceCents: 5000, TotalCents: 5000,
		Status: commerce.OrderPaid,
	}
}

func TestCreateReturn(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	assert.Equal(t, commerce.ReturnSubmitted, ret.Status)
	assert.Equal(t, "o1", ret.OrderID)
	assert.Equal(t, "p1", ret.ProductID)
	assert.Equal(t, 5000, ret.RefundCents, "refund = unit price * returned quantity")
	assert.False(t, ret.StockCredited)
	require.Len(t, ret.History, 1)
	assert.Equal(t, "Return request submitted", ret.History[0].Note)
	assert.Equal(t, "Customer", ret.History[0].Actor)
}

func TestCreateReturnRejectsOverReturn(t *testing.T) {
	h := newHarness(testOrder())

	_, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 2)
	assert.ErrorIs(t, err, commerce.ErrValidation)

	_, err = h.svc.Create(context.Background(), "s1", "o1", "damaged", 0)
	assert.ErrorIs(t, err, commerce.ErrValidation)
}

func TestCreateReturnRejectsCrossStoreOrder(t *testing.T) {
	h := newHarness(testOrder())

	_, err := h.svc.Create(context.Background(), "s2", "o1", "damaged", 1)
	assert.ErrorIs(t, err, commerce.ErrValidation)
}

func TestApproveThenRefundCreditsStockOnce(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	ret, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnApproved, "", "staff-1")
	require.NoError(t, err)
	assert.True(t, ret.StockCredited, "first entry into Approved credits stock")

	p, err := h.products.Get(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)

	ret, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnRefunded, "", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, commerce.ReturnRefunded, ret.Status)
	assert.True(t, ret.StockCredited)

	p, err = h.products.Get(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity, "refund after approval must not credit again")
}

func TestReassertingStatusIsHistoryOnly(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnApproved, "", "staff-1")
	require.NoError(t, err)

	ret, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnApproved, "double checked", "staff-2")
	require.NoError(t, err)

	p, err := h.products.Get(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity, "re-approving must not credit stock twice")

	stored, err := h.svc.Get(context.Background(), "s1", ret.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 3)
	assert.Equal(t, "double checked", stored.History[2].Note)
	assert.Equal(t, "staff-2", stored.History[2].Actor)
}

func TestRejectedReturnNeverTouchesStock(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	ret, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnRejected, "not eligible", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, commerce.ReturnRejected, ret.Status)
	assert.False(t, ret.StockCredited)

	p, err := h.products.Get(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)

	_, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnApproved, "", "staff-1")
	assert.ErrorIs(t, err, commerce.ErrInvalidTransition, "rejected is terminal")
}

func TestUpdateStatusRejectsInvalidTransitions(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnRefunded, "", "staff-1")
	assert.ErrorIs(t, err, commerce.ErrInvalidTransition, "refund requires prior approval")

	_, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnStatus("BOGUS"), "", "staff-1")
	assert.ErrorIs(t, err, commerce.ErrValidation)

	_, err = h.svc.UpdateStatus(context.Background(), "s2", ret.ID, commerce.ReturnApproved, "", "staff-1")
	assert.ErrorIs(t, err, commerce.ErrNotFound)
}

func TestUpdateStatusDefaultsNote(t *testing.T) {
	h := newHarness(testOrder())

	ret, err := h.svc.Create(context.Background(), "s1", "o1", "damaged", 1)
	require.NoError(t, err)

	ret, err = h.svc.UpdateStatus(context.Background(), "s1", ret.ID, commerce.ReturnApproved, "", "staff-1")
	require.NoError(t, err)
	require.Len(t, ret.History, 2)
	assert.Equal(t, "Status changed: SUBMITTED -> APPROVED", ret.History[1].Note)
}
