package customers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type fakeCustomerStore struct {
	mu        sync.Mutex
	byID      map[string]commerce.Customer
	saveCalls int
	// when set, the next Insert fails with ErrConflict after recording the
	// racing row, simulating a lost unique-constraint race
	raceWith *commerce.Customer
}

func newFakeCustomerStore() *fakeCustomerStore {
	return &fakeCustomerStore{byID: map[string]commerce.Customer{}}
}

func (f *fakeCustomerStore) FindByEmail(_ context.Context, storeID, normalizedEmail string) (commerce.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.StoreID == storeID && commerce.NormalizeEmail(c.Email) == normalizedEmail {
			return c, nil
		}
	}
	return commerce.Customer{}, commerce.NotFoundf("customer")
}

func (f *fakeCustomerStore) Insert(_ context.Context, c commerce.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceWith != nil {
		f.byID[f.raceWith.ID] = *f.raceWith
		f.raceWith = nil
		return commerce.ErrConflict
	}
	for _, existing := range f.byID {
		if existing.StoreID == c.StoreID && c.Email != "" &&
			commerce.NormalizeEmail(existing.Email) == commerce.NormalizeEmail(c.Email) {
			return commerce.ErrConflict
		}
	}
	f.byID[c.ID] = c
	return nil
}

func (f *fakeCustomerStore) SaveMerge(_ context.Context, c commerce.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[c.ID]; !ok {
		return commerce.NotFoundf("customer %s", c.ID)
	}
	f.byID[c.ID] = c
	f.saveCalls++
	return nil
}

func newTestResolver(store Store) *Resolver {
	r := NewResolver(store, zap.NewNop())
	n := 0
	r.NewID = func() string {
		n++
		return fmt.Sprintf("cust-%d", n)
	}
	return r
}

func TestResolveCreatesNewCustomer(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name:    "Ada Lovelace",
		Email:   "Ada@Example.com",
		Phone:   "555-1111",
		Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, "store-1", c.StoreID)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "Ada@Example.com", c.Email)
	assert.Empty(t, c.AlternativeNames)
	assert.Empty(t, c.AlternativePhones)
	assert.Empty(t, c.AlternativeAddresses)
}

func TestResolveMatchesOnNormalizedEmail(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	first, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com",
	})
	require.NoError(t, err)

	second, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "  A@X.COM ",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveScopedPerStore(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	a, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{Email: "a@x.com"})
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), "store-2", commerce.ContactBundle{Email: "a@x.com"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestResolveAlternatePhoneScenario(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com", Phone: "555-1111",
	})
	require.NoError(t, err)

	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com", Phone: "555-2222",
	})
	require.NoError(t, err)
	assert.Equal(t, "555-1111", c.Phone, "primary phone untouched")
	assert.Equal(t, []string{"555-2222"}, c.AlternativePhones)
}

func TestResolveMergeIsNonDestructive(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada Lovelace", Email: "a@x.com", Phone: "555-1111", Address: "1 Main St",
	})
	require.NoError(t, err)

	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "A. Lovelace", Email: "a@x.com", Phone: "555-2222", Address: "2 Oak Ave",
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, "555-1111", c.Phone)
	assert.Equal(t, "1 Main St", c.Address)
	assert.Equal(t, []string{"A. Lovelace"}, c.AlternativeNames)
	assert.Equal(t, []string{"555-2222"}, c.AlternativePhones)
	assert.Equal(t, []string{"2 Oak Ave"}, c.AlternativeAddresses)
}

func TestResolveMergeDeduplicatesAlternates(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	bundle := commerce.ContactBundle{
		Name: "A. Lovelace", Email: "a@x.com", Phone: "555-2222", Address: "2 Oak Ave",
	}
	_, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com", Phone: "555-1111", Address: "1 Main St",
	})
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "store-1", bundle)
	require.NoError(t, err)

	// same values in different formats must not append again
	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "a. lovelace", Email: "A@X.COM", Phone: "(555) 2222", Address: "2  OAK  AVE",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A. Lovelace"}, c.AlternativeNames)
	assert.Equal(t, []string{"555-2222"}, c.AlternativePhones)
	assert.Equal(t, []string{"2 Oak Ave"}, c.AlternativeAddresses)
}

func TestResolveSkipsMissingOptionalFields(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	_, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com", Phone: "555-1111", Address: "1 Main St",
	})
	require.NoError(t, err)

	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com",
	})
	require.NoError(t, err)
	assert.Empty(t, c.AlternativePhones)
	assert.Empty(t, c.AlternativeAddresses)
	assert.Equal(t, 0, store.saveCalls, "unchanged merge must not write")
}

func TestResolveRetriesAfterLostCreateRace(t *testing.T) {
	store := newFakeCustomerStore()
	r := newTestResolver(store)

	winner := commerce.Customer{
		ID: "winner", StoreID: "store-1", Name: "Ada", Email: "a@x.com", Phone: "555-1111",
	}
	store.raceWith = &winner

	c, err := r.Resolve(context.Background(), "store-1", commerce.ContactBundle{
		Name: "Ada", Email: "a@x.com", Phone: "555-2222",
	})
	require.NoError(t, err)
	assert.Equal(t, "winner", c.ID, "loser must merge into the winning row")
	assert.Equal(t, []string{"555-2222"}, c.AlternativePhones)
}

func TestMergeBundleReportsChange(t *testing.T) {
	c := commerce.Customer{Name: "Ada", Email: "a@x.com", Phone: "555-1111"}
	assert.False(t, MergeBundle(&c, commerce.ContactBundle{Name: "ada", Phone: "5551111"}))
	assert.True(t, MergeBundle(&c, commerce.ContactBundle{Name: "Augusta Ada"}))
}
