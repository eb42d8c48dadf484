package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type OrderRepo struct{ DB *pgxpool.Pool }

const orderCols = `id, store_id, customer_id, product_id, product_name,
	customer_name, customer_email, customer_phone, shipping_address,
	quantity, unit_price_cents, total_cents, status, is_paid, payment_status,
	notes, created_at, updated_at`

func scanOrder(row pgx.Row) (commerce.Order, error) {
	var o commerce.Order
	var customerID *string
	err := row.Scan(&o.ID, &o.StoreID, &customerID, &o.ProductID, &o.ProductName,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.ShippingAddress,
		&o.Quantity, &o.UnitPriceCents, &o.TotalCents, &o.Status, &o.IsPaid, &o.PaymentStatus,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if customerID != nil {
		o.CustomerID = *customerID
	}
	return o, err
}

// Insert writes the order and its first timeline entry in one transaction.
func (r *OrderRepo) Insert(ctx context.Context, o commerce.Order, first commerce.TimelineEntry) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var customerID *string
	if o.CustomerID != "" {
		customerID = &o.CustomerID
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, store_id, customer_id, product_id, product_name,
			customer_name, customer_email, customer_phone, shipping_address,
			quantity, unit_price_cents, total_cents, status, is_paid, payment_status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.StoreID, customerID, o.ProductID, o.ProductName,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ShippingAddress,
		o.Quantity, o.UnitPriceCents, o.TotalCents, o.Status, o.IsPaid, o.PaymentStatus, o.Notes); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline(order_id, description, actor)
		VALUES ($1,$2,$3)`,
		o.ID, first.Description, first.Actor); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) Get(ctx context.Context, storeID, orderID string) (commerce.Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE store_id=$1 AND id=$2`, storeID, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Order{}, commerce.NotFoundf("order %s", orderID)
	}
	if err != nil {
		return commerce.Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT description, actor, created_at FROM order_timeline
		WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return commerce.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e commerce.TimelineEntry
		if err := rows.Scan(&e.Description, &e.Actor, &e.CreatedAt); err != nil {
			return commerce.Order{}, err
		}
		o.Timeline = append(o.Timeline, e)
	}
	return o, rows.Err()
}

func (r *OrderRepo) List(ctx context.Context, storeID string) ([]commerce.Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commerce.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus is conditional on the current status so two concurrent
// transitions cannot both win; the loser gets commerce.ErrConflict.
// The timeline append rides in the same transaction.
func (r *OrderRepo) UpdateStatus(ctx context.Context, storeID, orderID string, from, to commerce.OrderStatus, isPaid bool, paymentStatus string, entry commerce.TimelineEntry) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$4, is_paid=$5, payment_status=$6, updated_at=now()
		WHERE store_id=$1 AND id=$2 AND status=$3`,
		storeID, orderID, from, to, isPaid, paymentStatus)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE store_id=$1 AND id=$2)`,
			storeID, orderID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return commerce.NotFoundf("order %s", orderID)
		}
		return commerce.ErrConflict
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_timeline(order_id, description, actor)
		VALUES ($1,$2,$3)`,
		orderID, entry.Description, entry.Actor); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepo) UpdateQuantity(ctx context.Context, storeID, orderID string, quantity, totalCents int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET quantity=$3, total_cents=$4, updated_at=now()
		WHERE store_id=$1 AND id=$2`,
		storeID, orderID, quantity, totalCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return commerce.NotFoundf("order %s", orderID)
	}
	return nil
}
