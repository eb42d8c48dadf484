package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type StoreRepo struct{ DB *pgxpool.Pool }

func (r *StoreRepo) Get(ctx context.Context, storeID string) (commerce.Store, error) {
	var s commerce.Store
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, currency, demo, created_at
		FROM stores WHERE id=$1`, storeID).
		Scan(&s.ID, &s.Name, &s.Currency, &s.Demo, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Store{}, commerce.NotFoundf("store %s", storeID)
	}
	if err != nil {
		return commerce.Store{}, err
	}
	return s, nil
}

func (r *StoreRepo) Insert(ctx context.Context, s commerce.Store) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO stores(id, name, currency, demo)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Currency, s.Demo)
	return err
}
