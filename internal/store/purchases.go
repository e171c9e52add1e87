// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/inkwell-go/internal/model"
)

// AddPurchase grants a user access to a book. Granting twice is a no-op.
func (q *Queries) AddPurchase(ctx context.Context, userID, bookID int64) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO purchases (user_id, book_id, granted_at)
		VALUES (?, ?, ?)`,
		userID, bookID, time.Now())
	return err
}

// RemovePurchase withdraws a user's access to a book.
func (q *Queries) RemovePurchase(ctx context.Context, userID, bookID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM purchases WHERE user_id = ? AND book_id = ?`, userID, bookID)
	return err
}

// HasPurchase reports whether the user has access to the book.
func (q *Queries) HasPurchase(ctx context.Context, userID, bookID int64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE user_id = ? AND book_id = ?`,
		userID, bookID).Scan(&n)
	return n > 0, err
}

// ListPurchaseBookIDs returns the IDs of every book the user can read.
func (q *Queries) ListPurchaseBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT book_id FROM purchases WHERE user_id = ? ORDER BY book_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPurchasePairs returns every (user, book) grant in the system.
func (q *Queries) ListPurchasePairs(ctx context.Context) ([]model.UserBookPair, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT user_id, book_id FROM purchases`)
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
