// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ledger implements the order lifecycle: submission of payment
// proofs, admin resolution, and the access grants that follow from it.
// Status changes and their side effects commit in a single transaction,
// so an order is never completed without its grant.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
	"github.com/olegiv/inkwell-go/internal/util"
)

// Sentinel errors returned by the service. Handlers map these onto HTTP
// error codes.
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrDuplicatePending  = errors.New("a pending order for this book already exists")
	ErrAlreadyOwned      = errors.New("book is already owned")
)

// Service owns the order ledger and its derived access grants.
type Service struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cacher
}

// New creates a ledger Service.
func New(db *sql.DB, c cache.Cacher) *Service {
	return &Service{
		db:      db,
		queries: store.New(db),
		cache:   c,
	}
}

// SubmitParams describes a new order submission.
type SubmitParams struct {
	UserID    int64
	UserEmail string
	BookID    int64
	ProofPath string
}

// Submit records a pending order for a book. The book's title and price
// are snapshotted into the order. Submission is refused when the user
// already owns the book or has a pending order for it.
func (s *Service) Submit(ctx context.Context, arg SubmitParams) (model.Order, error) {
	book, err := s.queries.GetBookByID(ctx, arg.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, ErrBookNotFound
		}
		return model.Order{}, fmt.Errorf("loading book: %w", err)
	}

	owned, err := s.queries.HasPurchase(ctx, arg.UserID, arg.BookID)
	if err != nil {
		return model.Order{}, fmt.Errorf("checking ownership: %w", err)
	}
	if owned {
		return model.Order{}, ErrAlreadyOwned
	}

	pending, err := s.queries.CountPendingOrdersForUserBook(ctx, arg.UserID, arg.BookID)
	if err != nil {
		return model.Order{}, fmt.Errorf("checking pending orders: %w", err)
	}
	if pending > 0 {
		return model.Order{}, ErrDuplicatePending
	}

	order, err := s.queries.CreateOrder(ctx, store.CreateOrderParams{
		UserID:     arg.UserID,
		UserEmail:  arg.UserEmail,
		BookID:     book.ID,
		BookTitle:  book.Title,
		PriceCents: book.PriceCents,
		ProofPath:  arg.ProofPath,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("creating order: %w", err)
	}

	s.audit(ctx, model.EventLevelInfo, "order submitted", order, arg.UserID)
	return order, nil
}

// Approve moves a pending order to completed and grants the buyer access
// to the book. Both writes commit atomically.
func (s *Service) Approve(ctx context.Context, orderID, adminID int64) (model.Order, error) {
	return s.resolve(ctx, orderID, adminID, model.OrderStatusCompleted)
}

// Reject moves a pending order to rejected. No access is granted.
func (s *Service) Reject(ctx context.Context, orderID, adminID int64) (model.Order, error) {
	return s.resolve(ctx, orderID, adminID, model.OrderStatusRejected)
}

// Revoke moves a completed order to revoked and withdraws the grant,
// unless another completed order still entitles the user to the book.
func (s *Service) Revoke(ctx context.Context, orderID, adminID int64) (model.Order, error) {
	return s.resolve(ctx, orderID, adminID, model.OrderStatusRevoked)
}

// SetStatus applies an arbitrary status change, validating it against the
// lifecycle. It dispatches to the same transactional path as the named
// operations.
func (s *Service) SetStatus(ctx context.Context, orderID, adminID int64, status string) (model.Order, error) {
	if !model.IsValidOrderStatus(status) {
		return model.Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	return s.resolve(ctx, orderID, adminID, status)
}

// resolve performs one status change and its side effects in a single
// transaction.
func (s *Service) resolve(ctx context.Context, orderID, adminID int64, target string) (model.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)

	order, err := q.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, ErrOrderNotFound
		}
		return model.Order{}, fmt.Errorf("loading order: %w", err)
	}

	if !model.CanTransition(order.Status, target) {
		return model.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, target)
	}

	updated, err := q.UpdateOrderStatus(ctx, store.UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     target,
		ResolvedBy: adminID,
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("updating order status: %w", err)
	}

	switch target {
	case model.OrderStatusCompleted:
		if err := q.AddPurchase(ctx, order.UserID, order.BookID); err != nil {
			return model.Order{}, fmt.Errorf("granting access: %w", err)
		}

	case model.OrderStatusRevoked:
		// Another completed order may still entitle the user to the book.
		remaining, err := q.CountCompletedOrdersForUserBook(ctx, order.UserID, order.BookID)
		if err != nil {
			return model.Order{}, fmt.Errorf("checking remaining orders: %w", err)
		}
		if remaining == 0 {
			if err := q.RemovePurchase(ctx, order.UserID, order.BookID); err != nil {
				return model.Order{}, fmt.Errorf("withdrawing access: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Order{}, fmt.Errorf("committing transaction: %w", err)
	}

	s.invalidateAccess(ctx, order.UserID)
	s.audit(ctx, model.EventLevelInfo, "order "+target, updated, adminID)

	return updated, nil
}

// invalidateAccess drops the cached grant set for a user after any change.
func (s *Service) invalidateAccess(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.PurchasesKey(userID)); err != nil {
		slog.Warn("failed to invalidate access cache", "user_id", userID, "error", err)
	}
}

// audit records a ledger event. Audit failures are logged, never fatal.
func (s *Service) audit(ctx context.Context, level, message string, order model.Order, actorID int64) {
	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:    level,
		Category: model.EventCategoryOrder,
		Message:  message,
		UserID:   util.NullInt64FromValue(actorID),
		Metadata: fmt.Sprintf(`{"order_id":%d,"book_id":%d,"status":%q}`, order.ID, order.BookID, order.Status),
	})
	if err != nil {
		slog.Warn("failed to record order event", "order_id", order.ID, "error", err)
	}
}
