package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type ReturnRepo struct{ DB *pgxpool.Pool }

const returnCols = `id, store_id, order_id, customer_id, product_id, reason,
	returned_quantity, refund_cents, status, stock_credited, created_at, updated_at`

func scanReturn(row pgx.Row) (commerce.Return, error) {
	var ret commerce.Return
	var customerID *string
	err := row.Scan(&ret.ID, &ret.StoreID, &ret.OrderID, &customerID, &ret.ProductID, &ret.Reason,
		&ret.ReturnedQuantity, &ret.RefundCents, &ret.Status, &ret.StockCredited,
		&ret.CreatedAt, &ret.UpdatedAt)
	if customerID != nil {
		ret.CustomerID = *customerID
	}
	return ret, err
}

// Insert writes the return and its first history entry in one transaction.
func (r *ReturnRepo) Insert(ctx context.Context, ret commerce.Return, first commerce.ReturnEvent) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var customerID *string
	if ret.CustomerID != "" {
		customerID = &ret.CustomerID
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO returns(id, store_id, order_id, customer_id, product_id, reason,
			returned_quantity, refund_cents, status, stock_credited)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ret.ID, ret.StoreID, ret.OrderID, customerID, ret.ProductID, ret.Reason,
		ret.ReturnedQuantity, ret.RefundCents, ret.Status, ret.StockCredited); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO return_history(return_id, status, actor, note)
		VALUES ($1,$2,$3,$4)`,
		ret.ID, first.Status, first.Actor, first.Note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ReturnRepo) Get(ctx context.Context, storeID, returnID string) (commerce.Return, error) {
	ret, err := scanReturn(r.DB.QueryRow(ctx,
		`SELECT `+returnCols+` FROM returns WHERE store_id=$1 AND id=$2`, storeID, returnID))
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Return{}, commerce.NotFoundf("return %s", returnID)
	}
	if err != nil {
		return commerce.Return{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT status, actor, note, created_at FROM return_history
		WHERE return_id=$1 ORDER BY id`, returnID)
	if err != nil {
		return commerce.Return{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e commerce.ReturnEvent
		if err := rows.Scan(&e.Status, &e.Actor, &e.Note, &e.CreatedAt); err != nil {
			return commerce.Return{}, err
		}
		ret.History = append(ret.History, e)
	}
	return ret, rows.Err()
}

func (r *ReturnRepo) List(ctx context.Context, storeID string) ([]commerce.Return, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+returnCols+` FROM returns WHERE store_id=$1 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commerce.Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

// Transition applies a status change conditional on the current status, and
// when credit is set restores stock in the same transaction, so the
// first-time-entering-approved check cannot double-credit under concurrency.
// The updated product snapshot is returned when stock moved.
func (r *ReturnRepo) Transition(ctx context.Context, storeID, returnID string, from, to commerce.ReturnStatus, credit bool, entry commerce.ReturnEvent) (commerce.Product, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return commerce.Product{}, false, err
	}
	defer tx.Rollback(ctx)

	var productID string
	var qty int
	err = tx.QueryRow(ctx, `
		UPDATE returns SET
			status         = $4,
			stock_credited = stock_credited OR $5,
			updated_at     = now()
		WHERE store_id=$1 AND id=$2 AND status=$3
		  AND NOT ($5 AND stock_credited)
		RETURNING product_id, returned_quantity`,
		storeID, returnID, from, to, credit).Scan(&productID, &qty)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM returns WHERE store_id=$1 AND id=$2)`,
			storeID, returnID).Scan(&exists); err != nil {
			return commerce.Product{}, false, err
		}
		if !exists {
			return commerce.Product{}, false, commerce.NotFoundf("return %s", returnID)
		}
		return commerce.Product{}, false, commerce.ErrConflict
	}
	if err != nil {
		return commerce.Product{}, false, err
	}

	var product commerce.Product
	credited := false
	if credit {
		err = tx.QueryRow(ctx, `
			UPDATE products SET
				stock_quantity = stock_quantity + $3,
				low_stock      = stock_quantity + $3 <= reorder_threshold,
				updated_at     = now()
			WHERE store_id=$1 AND id=$2
			RETURNING `+productCols,
			storeID, productID, qty).
			Scan(&product.ID, &product.StoreID, &product.Name, &product.PriceCents,
				&product.StockQuantity, &product.ReorderThreshold, &product.LowStock,
				&product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return commerce.Product{}, false, err
		}
		credited = true
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO return_history(return_id, status, actor, note)
		VALUES ($1,$2,$3,$4)`,
		returnID, entry.Status, entry.Actor, entry.Note); err != nil {
		return commerce.Product{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return commerce.Product{}, false, err
	}
	return product, credited, nil
}
