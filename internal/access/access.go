// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package access answers "may this user read this book". Grant sets are
// cached per user; the ledger invalidates the cache on every change.
package access

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/store"
)

// Resolver resolves book access for users.
type Resolver struct {
	queries *store.Queries
	cache   *cache.TypedCache[[]int64]
}

// New creates a Resolver backed by the given cache.
func New(db *sql.DB, c cache.Cacher) *Resolver {
	return &Resolver{
		queries: store.New(db),
		cache:   cache.NewTypedCache[[]int64](c, 15*time.Minute),
	}
}

// GrantedBookIDs returns the IDs of every book the user may read.
func (r *Resolver) GrantedBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := r.cache.GetOrSet(ctx, cache.PurchasesKey(userID), func() (*[]int64, error) {
		ids, err := r.queries.ListPurchaseBookIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("loading grants: %w", err)
		}
		return &ids, nil
	})
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

// HasAccess reports whether the user may read the book.
func (r *Resolver) HasAccess(ctx context.Context, userID, bookID int64) (bool, error) {
	ids, err := r.GrantedBookIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == bookID {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cached grant set for a user.
func (r *Resolver) Invalidate(ctx context.Context, userID int64) {
	_ = r.cache.Delete(ctx, cache.PurchasesKey(userID))
}
