// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/olegiv/inkwell-go/internal/model"
)

// ReconcileResult summarizes one reconciliation run.
type ReconcileResult struct {
	Granted int // grants added for completed orders that lacked one
	Removed int // grants removed with no completed order backing them
}

// Reconcile repairs drift between the order ledger and the grant table.
// A grant must exist exactly when at least one completed order backs it.
// Under normal operation both sides change in the same transaction, so
// this only ever repairs damage from manual database edits or restores.
func (s *Service) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	completed, err := s.queries.ListCompletedOrderPairs(ctx)
	if err != nil {
		return result, fmt.Errorf("listing completed orders: %w", err)
	}

	granted, err := s.queries.ListPurchasePairs(ctx)
	if err != nil {
		return result, fmt.Errorf("listing grants: %w", err)
	}

	completedSet := make(map[model.UserBookPair]bool, len(completed))
	for _, p := range completed {
		completedSet[p] = true
	}
	grantedSet := make(map[model.UserBookPair]bool, len(granted))
	for _, p := range granted {
		grantedSet[p] = true
	}

	for _, p := range completed {
		if grantedSet[p] {
			continue
		}
		if err := s.queries.AddPurchase(ctx, p.UserID, p.BookID); err != nil {
			return result, fmt.Errorf("adding missing grant: %w", err)
		}
		s.invalidateAccess(ctx, p.UserID)
		result.Granted++
	}

	for _, p := range granted {
		if completedSet[p] {
			continue
		}
		if err := s.queries.RemovePurchase(ctx, p.UserID, p.BookID); err != nil {
			return result, fmt.Errorf("removing orphaned grant: %w", err)
		}
		s.invalidateAccess(ctx, p.UserID)
		result.Removed++
	}

	if result.Granted > 0 || result.Removed > 0 {
		slog.Warn("reconciled access grants against order ledger",
			"granted", result.Granted, "removed", result.Removed)
	}

	return result, nil
}
