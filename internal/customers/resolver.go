// Package customers resolves loosely-structured inbound contact info to a
// per-store customer record, merging new details into alternate fields
// without ever destroying prior data.
package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwidjaja/shopdesk/internal/commerce"
)

// Store is the persistence surface the resolver needs. Implemented by
// postgres.CustomerRepo.
type Store interface {
	FindByEmail(ctx context.Context, storeID, normalizedEmail string) (commerce.Customer, error)
	Insert(ctx context.Context, c commerce.Customer) error
	SaveMerge(ctx context.Context, c commerce.Customer) error
}

type Resolver struct {
	Customers Store
	Log       *zap.Logger
	NewID     func() string
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	return &Resolver{Customers: store, Log: log, NewID: uuid.NewString}
}

// Resolve finds the customer whose normalized primary email matches the
// bundle, merging the bundle into it, or creates a new customer. Two
// concurrent calls for the same new email race on the (store, email)
// uniqueness constraint; the loser retries the lookup-merge path instead
// of surfacing the conflict.
func (r *Resolver) Resolve(ctx context.Context, storeID string, in commerce.ContactBundle) (commerce.Customer, error) {
	email := commerce.NormalizeEmail(in.Email)

	for attempt := 0; ; attempt++ {
		if email != "" {
			existing, err := r.Customers.FindByEmail(ctx, storeID, email)
			if err == nil {
				return r.merge(ctx, existing, in)
			}
			if !errors.Is(err, commerce.ErrNotFound) {
				return commerce.Customer{}, err
			}
		}

		created := commerce.Customer{
			ID:      r.NewID(),
			StoreID: storeID,
			Name:    strings.TrimSpace(in.Name),
			Email:   strings.TrimSpace(in.Email),
			Phone:   strings.TrimSpace(in.Phone),
			Address: strings.TrimSpace(in.Address),
		}
		err := r.Customers.Insert(ctx, created)
		if err == nil {
			r.Log.Info("customer created",
				zap.String("store_id", storeID), zap.String("customer_id", created.ID))
			return created, nil
		}
		if errors.Is(err, commerce.ErrConflict) && email != "" && attempt == 0 {
			// lost the create race; the row exists now, merge into it
			continue
		}
		return commerce.Customer{}, err
	}
}

func (r *Resolver) merge(ctx context.Context, c commerce.Customer, in commerce.ContactBundle) (commerce.Customer, error) {
	if !MergeBundle(&c, in) {
		return c, nil
	}
	if err := r.Customers.SaveMerge(ctx, c); err != nil {
		return commerce.Customer{}, err
	}
	r.Log.Info("customer merged",
		zap.String("store_id", c.StoreID), zap.String("customer_id", c.ID))
	return c, nil
}

// MergeBundle folds incoming contact details into the customer as alternate
// values. Primaries are never overwritten; alternates are deduplicated
// using the contact normalizers. Reports whether anything changed.
//
// Incoming email is matched against the primary before this point, so the
// email field itself never produces an alternate here.
func MergeBundle(c *commerce.Customer, in commerce.ContactBundle) bool {
	changed := false

	if name := strings.TrimSpace(in.Name); name != "" {
		if !equalFolded(name, c.Name) && !containsFolded(c.AlternativeNames, name) {
			c.AlternativeNames = append(c.AlternativeNames, name)
			changed = true
		}
	}

	if phone := strings.TrimSpace(in.Phone); phone != "" {
		norm := commerce.NormalizePhone(phone)
		if norm != "" && norm != commerce.NormalizePhone(c.Phone) &&
			!containsPhone(c.AlternativePhones, norm) {
			c.AlternativePhones = append(c.AlternativePhones, phone)
			changed = true
		}
	}

	if addr := strings.TrimSpace(in.Address); addr != "" {
		norm := commerce.NormalizeAddress(addr)
		if norm != commerce.NormalizeAddress(c.Address) &&
			!containsAddress(c.AlternativeAddresses, norm) {
			c.AlternativeAddresses = append(c.AlternativeAddresses, addr)
			changed = true
		}
	}

	return changed
}

func equalFolded(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsFolded(values []string, v string) bool {
	for _, x := range values {
		if equalFolded(x, v) {
			return true
		}
	}
	return false
}

func containsPhone(values []string, normalized string) bool {
	for _, x := range values {
		if commerce.NormalizePhone(x) == normalized {
			return true
		}
	}
	return false
}

func containsAddress(values []string, normalized string) bool {
	for _, x := range values {
		if commerce.NormalizeAddress(x) == normalized {
			return true
		}
	}
	return false
}
