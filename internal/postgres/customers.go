package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

type CustomerRepo struct{ DB *pgxpool.Pool }

const customerCols = `id, store_id, name, email, phone, address,
	alternative_names, alternative_emails, alternative_phones, alternative_addresses,
	created_at, updated_at`

func scanCustomer(row pgx.Row) (commerce.Customer, error) {
	var c commerce.Customer
	err := row.Scan(&c.ID, &c.StoreID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.AlternativeNames, &c.AlternativeEmails, &c.AlternativePhones, &c.AlternativeAddresses,
		&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CustomerRepo) Get(ctx context.Context, storeID, customerID string) (commerce.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE store_id=$1 AND id=$2`, storeID, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Customer{}, commerce.NotFoundf("customer %s", customerID)
	}
	if err != nil {
		return commerce.Customer{}, err
	}
	return c, nil
}

// FindByEmail matches on the store-scoped normalized primary email, the
// canonical identity key.
func (r *CustomerRepo) FindByEmail(ctx context.Context, storeID, normalizedEmail string) (commerce.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE store_id=$1 AND lower(email)=$2`,
		storeID, normalizedEmail))
	if errors.Is(err, pgx.ErrNoRows) {
		return commerce.Customer{}, commerce.NotFoundf("customer with email in store %s", storeID)
	}
	if err != nil {
		return commerce.Customer{}, err
	}
	return c, nil
}

// Insert returns commerce.ErrConflict when the (store_id, lower(email))
// uniqueness constraint fires, so the resolver can retry the lookup path.
func (r *CustomerRepo) Insert(ctx context.Context, c commerce.Customer) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO customers(id, store_id, name, email, phone, address,
			alternative_names, alternative_emails, alternative_phones, alternative_addresses)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.StoreID, c.Name, c.Email, c.Phone, c.Address,
		c.AlternativeNames, c.AlternativeEmails, c.AlternativePhones, c.AlternativeAddresses)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return commerce.ErrConflict
	}
	return err
}

// SaveMerge persists the alternate sequences after a resolver merge.
// Primary name and email are deliberately not in the SET list.
func (r *CustomerRepo) SaveMerge(ctx context.Context, c commerce.Customer) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE customers SET
			alternative_names=$3, alternative_emails=$4,
			alternative_phones=$5, alternative_addresses=$6,
			updated_at=now()
		WHERE store_id=$1 AND id=$2`,
		c.StoreID, c.ID,
		c.AlternativeNames, c.AlternativeEmails, c.AlternativePhones, c.AlternativeAddresses)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return commerce.NotFoundf("customer %s", c.ID)
	}
	return nil
}

func (r *CustomerRepo) List(ctx context.Context, storeID string) ([]commerce.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+customerCols+` FROM customers WHERE store_id=$1 ORDER BY created_at`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []commerce.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete blocks while any order still references the customer.
func (r *CustomerRepo) Delete(ctx context.Context, storeID, customerID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var n int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE store_id=$1 AND customer_id=$2`,
		storeID, customerID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return commerce.Validationf("customer %s still has %d referencing orders", customerID, n)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM customers WHERE store_id=$1 AND id=$2`, storeID, customerID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return commerce.NotFoundf("customer %s", customerID)
	}
	return tx.Commit(ctx)
}
