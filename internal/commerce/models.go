package commerce

import "time"

type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Demo      bool      `json:"demo"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactBundle is the loosely-structured contact info carried by an
// inbound order.
type ContactBundle struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Customer struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	// Alternates are deduplicated (normalizer-compared) before insertion
	// and only ever appended to; primaries are never overwritten.
	AlternativeNames     []string `json:"alternative_names"`
	AlternativeEmails    []string `json:"alternative_emails"`
	AlternativePhones    []string `json:"alternative_phones"`
	AlternativeAddresses []string `json:"alternative_addresses"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID               string    `json:"id"`
	StoreID          string    `json:"store_id"`
	Name             string    `json:"name"`
	PriceCents       int       `json:"price_cents"`
	StockQuantity    int       `json:"stock_quantity"`
	ReorderThreshold int       `json:"reorder_threshold"`
	LowStock         bool      `json:"low_stock"` // always derived: StockQuantity <= ReorderThreshold
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Order struct {
	ID         string `json:"id"`
	StoreID    string `json:"store_id"`
	CustomerID string `json:"customer_id,omitempty"` // empty until resolved
	ProductID  string `json:"product_id"`

	// Contact snapshot taken at creation time, independent of later
	// customer edits.
	ProductName     string `json:"product_name"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`

	Quantity       int         `json:"quantity"`
	UnitPriceCents int         `json:"unit_price_cents"`
	TotalCents     int         `json:"total_cents"`
	Status         OrderStatus `json:"status"`
	IsPaid         bool        `json:"is_paid"`
	PaymentStatus  string      `json:"payment_status"`
	Notes          string      `json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	Timeline []TimelineEntry `json:"timeline,omitempty"`
}

// TimelineEntry is one row of an order's append-only audit log.
type TimelineEntry struct {
	Description string    `json:"description"`
	Actor       string    `json:"actor"`
	CreatedAt   time.Time `json:"created_at"`
}

type Return struct {
	ID               string       `json:"id"`
	StoreID          string       `json:"store_id"`
	OrderID          string       `json:"order_id"`
	CustomerID       string       `json:"customer_id,omitempty"`
	ProductID        string       `json:"product_id"`
	Reason           string       `json:"reason"`
	ReturnedQuantity int          `json:"returned_quantity"`
	RefundCents      int          `json:"refund_cents"`
	Status           ReturnStatus `json:"status"`
	// StockCredited flips once, on the first entry into Approved or
	// Refunded; later edits must not double-credit stock.
	StockCredited bool      `json:"stock_credited"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	History []ReturnEvent `json:"history,omitempty"`
}

// ReturnEvent is one row of a return's append-only history; entries are
// never edited or removed.
type ReturnEvent struct {
	Status    ReturnStatus `json:"status"`
	Actor     string       `json:"actor"`
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}
