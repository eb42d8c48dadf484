package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables if they do not exist yet. The unique
// index on (store_id, lower(email)) backs the customer-resolver race:
// the loser of a concurrent create gets a 23505 and retries the lookup.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS stores (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	currency   TEXT NOT NULL DEFAULT 'USD',
	demo       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	id                    TEXT PRIMARY KEY,
	store_id              TEXT NOT NULL REFERENCES stores(id),
	name                  TEXT NOT NULL DEFAULT '',
	email                 TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	address               TEXT NOT NULL DEFAULT '',
	alternative_names     TEXT[] NOT NULL DEFAULT '{}',
	alternative_emails    TEXT[] NOT NULL DEFAULT '{}',
	alternative_phones    TEXT[] NOT NULL DEFAULT '{}',
	alternative_addresses TEXT[] NOT NULL DEFAULT '{}',
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS customers_store_email
	ON customers (store_id, lower(email)) WHERE email <> '';

CREATE TABLE IF NOT EXISTS products (
	id                TEXT PRIMARY KEY,
	store_id          TEXT NOT NULL REFERENCES stores(id),
	name              TEXT NOT NULL,
	price_cents       INTEGER NOT NULL,
	stock_quantity    INTEGER NOT NULL DEFAULT 0,
	reorder_threshold INTEGER NOT NULL DEFAULT 0,
	low_stock         BOOLEAN NOT NULL DEFAULT TRUE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
	id               TEXT PRIMARY KEY,
	store_id         TEXT NOT NULL REFERENCES stores(id),
	customer_id      TEXT,
	product_id       TEXT NOT NULL,
	product_name     TEXT NOT NULL,
	customer_name    TEXT NOT NULL DEFAULT '',
	customer_email   TEXT NOT NULL DEFAULT '',
	customer_phone   TEXT NOT NULL DEFAULT '',
	shipping_address TEXT NOT NULL DEFAULT '',
	quantity         INTEGER NOT NULL,
	unit_price_cents INTEGER NOT NULL,
	total_cents      INTEGER NOT NULL,
	status           TEXT NOT NULL,
	is_paid          BOOLEAN NOT NULL DEFAULT FALSE,
	payment_status   TEXT NOT NULL DEFAULT 'pending',
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_store ON orders (store_id, created_at);

CREATE TABLE IF NOT EXISTS order_timeline (
	id          BIGSERIAL PRIMARY KEY,
	order_id    TEXT NOT NULL REFERENCES orders(id),
	description TEXT NOT NULL,
	actor       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS returns (
	id                TEXT PRIMARY KEY,
	store_id          TEXT NOT NULL REFERENCES stores(id),
	order_id          TEXT NOT NULL REFERENCES orders(id),
	customer_id       TEXT,
	product_id        TEXT NOT NULL,
	reason            TEXT NOT NULL DEFAULT '',
	returned_quantity INTEGER NOT NULL,
	refund_cents      INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL,
	stock_credited    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS returns_store ON returns (store_id, created_at);

CREATE TABLE IF NOT EXISTS return_history (
	id         BIGSERIAL PRIMARY KEY,
	return_id  TEXT NOT NULL REFERENCES returns(id),
	status     TEXT NOT NULL,
	actor      TEXT NOT NULL DEFAULT '',
	note       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	_, err := db.Exec(ctx, ddl)
	return err
}
