// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/inkwell-go/internal/model"
)

// GetProgress fetches a user's reading position in a book.
func (q *Queries) GetProgress(ctx context.Context, userID, bookID int64) (model.ReadingProgress, error) {
	var p model.ReadingProgress
	err := q.db.QueryRowContext(ctx, `
		SELECT user_id, book_id, page, total_pages, last_read_at
		FROM reading_progress WHERE user_id = ? AND book_id = ?`,
		userID, bookID).Scan(&p.UserID, &p.BookID, &p.Page, &p.TotalPages, &p.LastReadAt)
	return p, err
}

// UpsertProgressParams holds a reading position update.
type UpsertProgressParams struct {
	UserID     int64
	BookID     int64
	Page       int64
	TotalPages int64
}

// UpsertProgress records the user's current page in a book, replacing
// any earlier position.
func (q *Queries) UpsertProgress(ctx context.Context, arg UpsertProgressParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO reading_progress (user_id, book_id, page, total_pages, last_read_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			page = excluded.page,
			total_pages = excluded.total_pages,
			last_read_at = excluded.last_read_at`,
		arg.UserID, arg.BookID, arg.Page, arg.TotalPages, time.Now())
	return err
}

// ListProgressForUser returns the user's reading positions across all books,
// most recently read first.
func (q *Queries) ListProgressForUser(ctx context.Context, userID int64) ([]model.ReadingProgress, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT user_id, book_id, page, total_pages, last_read_at
		FROM reading_progress WHERE user_id = ?
		ORDER BY last_read_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ReadingProgress
	for rows.Next() {
		var p model.ReadingProgress
		if err := rows.Scan(&p.UserID, &p.BookID, &p.Page, &p.TotalPages, &p.LastReadAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProgress removes a user's reading position for a book.
func (q *Queries) DeleteProgress(ctx context.Context, userID, bookID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM reading_progress WHERE user_id = ? AND book_id = ?`, userID, bookID)
	return err
}
