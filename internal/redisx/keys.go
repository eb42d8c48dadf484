package redisx

import "time"

const (
	// Read cache for order status: order_status:{store_id}:{order_id}
	KeyOrderStatus = "order_status:%s:%s"

	// Read cache for return status: return_status:{store_id}:{return_id}
	KeyReturnStatus = "return_status:%s:%s"

	// Dedup for event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Per-store low-stock product set maintained by stockwatch:
	// lowstock:{store_id} -> set of product ids
	KeyLowStock = "lowstock:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
