package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/inventory"
	"github.com/mwidjaja/shopdesk/internal/tenant"
)

// ProductCatalog is the admin-facing slice of the product repo; stock and
// threshold moves go through the ledger so low_stock stays derived.
type ProductCatalog interface {
	Insert(ctx context.Context, p commerce.Product) error
	Get(ctx context.Context, storeID, productID string) (commerce.Product, error)
	List(ctx context.Context, storeID string) ([]commerce.Product, error)
	SetPrice(ctx context.Context, storeID, productID string, priceCents int) (commerce.Product, error)
}

type CreateProductReq struct {
	Name             string `json:"name"`
	PriceCents       int    `json:"price_cents"`
	StockQuantity    int    `json:"stock_quantity"`
	ReorderThreshold int    `json:"reorder_threshold"`
}

type StockDeltaReq struct {
	Delta int `json:"delta"`
}

type ThresholdReq struct {
	ReorderThreshold int `json:"reorder_threshold"`
}

type PriceReq struct {
	PriceCents int `json:"price_cents"`
}

type ProductsHandler struct {
	Catalog ProductCatalog
	Ledger  *inventory.Ledger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Post("/products", h.create)
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Post("/products/{id}/stock", h.adjustStock)
	r.Patch("/products/{id}/threshold", h.setThreshold)
	r.Patch("/products/{id}/price", h.setPrice)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req CreateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Name == "" || req.PriceCents < 0 {
		writeError(w, commerce.Validationf("product needs a name and a non-negative price"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p := commerce.Product{
		ID:               uuid.NewString(),
		StoreID:          act.StoreID,
		Name:             req.Name,
		PriceCents:       req.PriceCents,
		StockQuantity:    req.StockQuantity,
		ReorderThreshold: req.ReorderThreshold,
		LowStock:         req.StockQuantity <= req.ReorderThreshold,
	}
	if err := h.Catalog.Insert(ctx, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Catalog.List(ctx, act.StoreID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, act.StoreID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req StockDeltaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Ledger.ApplyDelta(ctx, act.StoreID, chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// setPrice never rewrites existing orders; they carry their own snapshotted
// unit price.
func (h *ProductsHandler) setPrice(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req PriceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.PriceCents < 0 {
		writeError(w, commerce.Validationf("price must not be negative"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Catalog.SetPrice(ctx, act.StoreID, chi.URLParam(r, "id"), req.PriceCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) setThreshold(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req ThresholdReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Ledger.SetReorderThreshold(ctx, act.StoreID, chi.URLParam(r, "id"), req.ReorderThreshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
