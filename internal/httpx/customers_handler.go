package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/tenant"
)

// CustomerDirectory is the admin-facing slice of the customer repo.
type CustomerDirectory interface {
	Get(ctx context.Context, storeID, customerID string) (commerce.Customer, error)
	List(ctx context.Context, storeID string) ([]commerce.Customer, error)
	Delete(ctx context.Context, storeID, customerID string) error
}

type CustomersHandler struct {
	Customers CustomerDirectory
}

func (h *CustomersHandler) Register(r chi.Router) {
	r.Get("/customers", h.list)
	r.Get("/customers/{id}", h.get)
	r.Delete("/customers/{id}", h.delete)
}

func (h *CustomersHandler) list(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Customers.List(ctx, act.StoreID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CustomersHandler) get(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Customers.Get(ctx, act.StoreID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// delete is blocked while orders still reference the customer; the only
// other removal path is a store-cascade delete, out of scope here.
func (h *CustomersHandler) delete(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Customers.Delete(ctx, act.StoreID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
