package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type ProductRepo struct{ DB *pgxpool.Pool }

const productCols = `id, store_id, name, price_cents, stock_quantity,
	reorder_threshold, low_stock, created_at, updated_at`

func scanProduct(row pgx.Row) (commerce.Product, error) {
	var p commerce.Product
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.StockQuantity,
		&p.ReorderThreshold, &p.LowStock, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepo) Get(ctx context.Context, storeID, productID string) (commerce.Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE store_id=$1 AND id=$2`, storeID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Product{}, commerce.NotFoundf("product %s", productID)
	}
	if err != nil {
		return commerce.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Insert(ctx context.Context, p commerce.Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, store_id, name, price_cents, stock_quantity,
			reorder_threshold, low_stock)
		VALUES ($1,$2,$3,$4,$5,$6, $5 <= $6)`,
		p.ID, p.StoreID, p.Name, p.PriceCents, p.StockQuantity, p.ReorderThreshold)
	return err
}

func (r *ProductRepo) List(ctx context.Context, storeID string) ([]commerce.Product, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+productCols+` FROM products WHERE store_id=$1 ORDER BY name`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commerce.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyDelta moves stock and recomputes low_stock in one statement, so
// concurrent order creation and return approval serialize on the row.
// With clampZero an oversell leaves the row untouched and returns
// commerce.ErrValidation.
func (r *ProductRepo) ApplyDelta(ctx context.Context, storeID, productID string, delta int, clampZero bool) (commerce.Product, error) {
	var p commerce.Product
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET
			stock_quantity = stock_quantity + $3,
			low_stock      = stock_quantity + $3 <= reorder_threshold,
			updated_at     = now()
		WHERE store_id=$1 AND id=$2
		  AND (NOT $4 OR stock_quantity + $3 >= 0)
		RETURNING `+productCols,
		storeID, productID, delta, clampZero).
		Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.StockQuantity,
			&p.ReorderThreshold, &p.LowStock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product is missing or the clamp refused the delta.
		if _, getErr := r.Get(ctx, storeID, productID); getErr != nil {
			return commerce.Product{}, getErr
		}
		return commerce.Product{}, commerce.Validationf("insufficient stock for product %s", productID)
	}
	if err != nil {
		return commerce.Product{}, err
	}
	return p, nil
}

// SetPrice changes the catalog price. Orders keep their snapshotted unit
// price, so existing totals are unaffected.
func (r *ProductRepo) SetPrice(ctx context.Context, storeID, productID string, priceCents int) (commerce.Product, error) {
	var p commerce.Product
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET price_cents=$3, updated_at=now()
		WHERE store_id=$1 AND id=$2
		RETURNING `+productCols,
		storeID, productID, priceCents).
		Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.StockQuantity,
			&p.ReorderThreshold, &p.LowStock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Product{}, commerce.NotFoundf("product %s", productID)
	}
	if err != nil {
		return commerce.Product{}, err
	}
	return p, nil
}

// SetReorderThreshold recomputes low_stock together with the threshold.
func (r *ProductRepo) SetReorderThreshold(ctx context.Context, storeID, productID string, threshold int) (commerce.Product, error) {
	var p commerce.Product
	err := r.DB.QueryRow(ctx, `
		UPDATE products SET
			reorder_threshold = $3,
			low_stock         = stock_quantity <= $3,
			updated_at        = now()
		WHERE store_id=$1 AND id=$2
		RETURNING `+productCols,
		storeID, productID, threshold).
		Scan(&p.ID, &p.StoreID, &p.Name, &p.PriceCents, &p.StockQuantity,
			&p.ReorderThreshold, &p.LowStock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Product{}, commerce.NotFoundf("product %s", productID)
	}
	if err != nil {
		return commerce.Product{}, err
	}
	return p, nil
}
