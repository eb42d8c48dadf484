package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mwidjaja/shopdesk/internal/commerce"
	"github.com/mwidjaja/shopdesk/internal/redisx"
	"github.com/mwidjaja/shopdesk/internal/returns"
	"github.com/mwidjaja/shopdesk/internal/tenant"
)

type CreateReturnReq struct {
	OrderID          string `json:"order_id"`
	Reason           string `json:"reason"`
	ReturnedQuantity int    `json:"returned_quantity"`
}

type UpdateReturnStatusReq struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type ReturnsHandler struct {
	Service *returns.Service
	Redis   *redis.Client
}

func (h *ReturnsHandler) Register(r chi.Router) {
	r.Post("/returns", h.create)
	r.Get("/returns", h.list)
	r.Get("/returns/{id}", h.get)
	r.Get("/returns/{id}/status", h.getStatus)
	r.Patch("/returns/{id}/status", h.updateStatus)
}

func (h *ReturnsHandler) create(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req CreateReturnReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ret, err := h.Service.Create(ctx, act.StoreID, req.OrderID, req.Reason, req.ReturnedQuantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ret)
}

func (h *ReturnsHandler) list(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.List(ctx, act.StoreID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReturnsHandler) get(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ret, err := h.Service.Get(ctx, act.StoreID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

// getStatus serves from the redis read cache first, like order status; the
// database stays the source of truth.
func (h *ReturnsHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	returnID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyReturnStatus, act.StoreID, returnID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	ret, err := h.Service.Get(ctx, act.StoreID, returnID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, ret)
	writeJSON(w, http.StatusOK, returnStatusBody(ret))
}

func (h *ReturnsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req UpdateReturnStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ret, err := h.Service.UpdateStatus(ctx, act.StoreID, chi.URLParam(r, "id"),
		commerce.ReturnStatus(req.Status), req.Note, act.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, ret)
	writeJSON(w, http.StatusOK, ret)
}

func returnStatusBody(ret commerce.Return) map[string]any {
	return map[string]any{
		"status":         ret.Status,
		"stock_credited": ret.StockCredited,
	}
}

func (h *ReturnsHandler) cacheStatus(ctx context.Context, ret commerce.Return) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyReturnStatus, ret.StoreID, ret.ID)
	b, _ := json.Marshal(returnStatusBody(ret))
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
