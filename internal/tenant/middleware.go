package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

// StoreLookup is satisfied by the postgres store repo.
type StoreLookup interface {
	Get(ctx context.Context, storeID string) (commerce.Store, error)
}

const (
	HeaderStoreID   = "X-Store-Id"
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

// Middleware validates the store named by the upstream auth layer and puts
// the acting identity on the request context. Requests without a known
// store never reach a handler.
func Middleware(stores StoreLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID := r.Header.Get(HeaderStoreID)
			if storeID == "" {
				writeError(w, http.StatusBadRequest, "missing store id")
				return
			}
			if _, err := stores.Get(r.Context(), storeID); err != nil {
				if errors.Is(err, commerce.ErrNotFound) {
					writeError(w, http.StatusNotFound, "unknown store")
					return
				}
				writeError(w, http.StatusInternalServerError, "store lookup failed")
				return
			}
			ctx := NewContext(r.Context(), Acting{
				StoreID:   storeID,
				ActorID:   r.Header.Get(HeaderActorID),
				ActorRole: r.Header.Get(HeaderActorRole),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
