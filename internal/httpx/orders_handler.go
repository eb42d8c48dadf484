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
	"github.com/mwidjaja/shopdesk/internal/orders"
	"github.com/mwidjaja/shopdesk/internal/redisx"
	"github.com/mwidjaja/shopdesk/internal/tenant"
)

type CreateOrderReq struct {
	Contact         commerce.ContactBundle `json:"contact"`
	ProductID       string                 `json:"product_id"`
	Quantity        int                    `json:"quantity"`
	Notes           string                 `json:"notes"`
	ShippingAddress string                 `json:"shipping_address"`
}

type UpdateOrderStatusReq struct {
	Status string `json:"status"`
}

type UpdateOrderQuantityReq struct {
	Quantity int `json:"quantity"`
}

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Patch("/orders/{id}/quantity", h.updateQuantity)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.Create(ctx, act.StoreID, orders.CreateOrderInput{
		Contact:         req.Contact,
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		Notes:           req.Notes,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, order)
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
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

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, err := h.Service.Get(ctx, act.StoreID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// getStatus serves from the redis read cache first; the database stays the
// source of truth.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, act.StoreID, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	order, err := h.Service.Get(ctx, act.StoreID, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, order)
	writeJSON(w, http.StatusOK, statusBody(order))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req UpdateOrderStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.UpdateStatus(ctx, act.StoreID, chi.URLParam(r, "id"),
		commerce.OrderStatus(req.Status), act.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, order)
	writeJSON(w, http.StatusOK, order)
}

func (h *OrdersHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	act, err := tenant.FromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing store"})
		return
	}
	var req UpdateOrderQuantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Service.UpdateQuantity(ctx, act.StoreID, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func statusBody(o commerce.Order) map[string]any {
	return map[string]any{
		"status":         o.Status,
		"is_paid":        o.IsPaid,
		"payment_status": o.PaymentStatus,
	}
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o commerce.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.StoreID, o.ID)
	b, _ := json.Marshal(statusBody(o))
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
