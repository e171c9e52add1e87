// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Order statuses. The lifecycle is:
//
//	pending -> completed | rejected
//	completed -> revoked
//
// All other transitions are invalid. Revoked and rejected are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusRejected  = "rejected"
	OrderStatusRevoked   = "revoked"
)

// Order is a ledger entry recording one purchase attempt and its resolution.
// BookTitle and PriceCents are snapshots taken at submission time so the
// ledger stays meaningful when the catalog entry later changes or disappears.
type Order struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	UserEmail  string        `json:"user_email"`
	BookID     int64         `json:"book_id"`
	BookTitle  string        `json:"book_title"`
	PriceCents int64         `json:"price_cents"`
	Status     string        `json:"status"`
	ProofPath  string        `json:"proof_path"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt sql.NullTime  `json:"resolved_at,omitempty"`
	ResolvedBy sql.NullInt64 `json:"resolved_by,omitempty"`
}

// IsValidOrderStatus reports whether s is one of the four lifecycle states.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusRejected, OrderStatusRevoked:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusCompleted || to == OrderStatusRejected
	case OrderStatusCompleted:
		return to == OrderStatusRevoked
	}
	return false
}

// UserBookPair identifies one user's relationship to one book. Used when
// reconciling grants against the order ledger.
type UserBookPair struct {
	UserID int64
	BookID int64
}

// IsPending returns true if the order awaits admin review.
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsCompleted returns true if the order has been approved.
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}
