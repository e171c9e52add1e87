// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package reading tracks how far each user has read each book.
package reading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
)

// ErrInvalidPage is returned when a recorded page falls outside the book.
var ErrInvalidPage = errors.New("page out of range")

// Tracker records and reports reading positions.
type Tracker struct {
	queries *store.Queries
}

// New creates a Tracker.
func New(db *sql.DB) *Tracker {
	return &Tracker{queries: store.New(db)}
}

// Record stores the user's position in a book. Pages are 1-based and must
// fall within totalPages. Returns true when the stored position changed.
func (t *Tracker) Record(ctx context.Context, userID, bookID, page, totalPages int64) (bool, error) {
	if totalPages < 1 || page < 1 || page > totalPages {
		return false, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, page, totalPages)
	}

	current, err := t.queries.GetProgress(ctx, userID, bookID)
	if err == nil && current.Page == page && current.TotalPages == totalPages {
		return false, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("loading progress: %w", err)
	}

	if err := t.queries.UpsertProgress(ctx, store.UpsertProgressParams{
		UserID:     userID,
		BookID:     bookID,
		Page:       page,
		TotalPages: totalPages,
	}); err != nil {
		return false, fmt.Errorf("saving progress: %w", err)
	}

	return true, nil
}

// Position returns the user's saved position in a book, or page 1 when
// the book has never been opened.
func (t *Tracker) Position(ctx context.Context, userID, bookID int64) (model.ReadingProgress, error) {
	p, err := t.queries.GetProgress(ctx, userID, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReadingProgress{UserID: userID, BookID: bookID, Page: 1}, nil
	}
	if err != nil {
		return model.ReadingProgress{}, fmt.Errorf("loading progress: %w", err)
	}
	return p, nil
}

// All returns every saved position for a user, most recently read first.
func (t *Tracker) All(ctx context.Context, userID int64) ([]model.ReadingProgress, error) {
	return t.queries.ListProgressForUser(ctx, userID)
}

// Forget removes the user's saved position for a book.
func (t *Tracker) Forget(ctx context.Context, userID, bookID int64) error {
	return t.queries.DeleteProgress(ctx, userID, bookID)
}
