// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/inkwell-go/internal/model"
)

const orderColumns = `id, user_id, user_email, book_id, book_title, price_cents,
	status, proof_path, created_at, resolved_at, resolved_by`

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.UserEmail, &o.BookID, &o.BookTitle, &o.PriceCents,
		&o.Status, &o.ProofPath, &o.CreatedAt, &o.ResolvedAt, &o.ResolvedBy,
	)
	return o, err
}

func collectOrders(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close() error
}) ([]model.Order, error) {
	defer rows.Close()
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateOrderParams holds the fields for submitting an order. Title and
// price are captured from the book at submission time.
type CreateOrderParams struct {
	UserID     int64
	UserEmail  string
	BookID     int64
	BookTitle  string
	PriceCents int64
	ProofPath  string
}

// CreateOrder inserts a pending order and returns the stored row.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (model.Order, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, user_email, book_id, book_title,
			price_cents, status, proof_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+orderColumns,
		arg.UserID, arg.UserEmail, arg.BookID, arg.BookTitle,
		arg.PriceCents, model.OrderStatusPending, arg.ProofPath, time.Now(),
	)
	return scanOrder(row)
}

// GetOrderByID fetches an order by primary key.
func (q *Queries) GetOrderByID(ctx context.Context, id int64) (model.Order, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

// ListOrdersParams controls order list pagination and filtering. Status
// narrows the listing when non-empty.
type ListOrdersParams struct {
	Status string
	Limit  int64
	Offset int64
}

// ListOrders returns a page of orders, newest first.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]model.Order, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// CountOrders returns the number of orders matching the optional status filter.
func (q *Queries) CountOrders(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE (? = '' OR status = ?)`,
		status, status).Scan(&n)
	return n, err
}

// ListOrdersForUser returns every order the user has submitted, newest first.
func (q *Queries) ListOrdersForUser(ctx context.Context, userID int64) ([]model.Order, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// UpdateOrderStatusParams records a status change and who resolved it.
type UpdateOrderStatusParams struct {
	ID         int64
	Status     string
	ResolvedBy int64
}

// UpdateOrderStatus sets the order's status and resolution metadata,
// returning the updated row.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (model.Order, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE orders SET status = ?, resolved_at = ?, resolved_by = ?
		WHERE id = ?
		RETURNING `+orderColumns,
		arg.Status, time.Now(), arg.ResolvedBy, arg.ID,
	)
	return scanOrder(row)
}

// CountPendingOrdersForUserBook counts the user's pending orders for a book.
func (q *Queries) CountPendingOrdersForUserBook(ctx context.Context, userID, bookID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE user_id = ? AND book_id = ? AND status = ?`,
		userID, bookID, model.OrderStatusPending).Scan(&n)
	return n, err
}

// CountCompletedOrdersForUserBook counts the user's completed orders for a
// book. Used to decide whether revoking one order should remove the grant.
func (q *Queries) CountCompletedOrdersForUserBook(ctx context.Context, userID, bookID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE user_id = ? AND book_id = ? AND status = ?`,
		userID, bookID, model.OrderStatusCompleted).Scan(&n)
	return n, err
}

// ListCompletedOrderPairs returns distinct (user, book) pairs backed by a
// completed order. Used by the reconciliation job.
func (q *Queries) ListCompletedOrderPairs(ctx context.Context) ([]model.UserBookPair, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT DISTINCT user_id, book_id FROM orders WHERE status = ?`,
		model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []model.UserBookPair
	for rows.Next() {
		var p model.UserBookPair
		if err := rows.Scan(&p.UserID, &p.BookID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
