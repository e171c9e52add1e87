// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/inkwell-go/internal/middleware"
)

// LibraryEntry is one owned book, with the reader's position when one
// has been recorded.
type LibraryEntry struct {
	Book       BookResponse `json:"book"`
	Page       int64        `json:"page,omitempty"`
	TotalPages int64        `json:"total_pages,omitempty"`
}

// Library handles GET /api/v1/library. Returns the caller's owned books in
// catalog order, each with its reading position.
func (h *Handler) Library(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	books, err := h.queries.ListPurchasedBooks(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to list library")
		return
	}

	progress, err := h.reading.All(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load reading progress")
		return
	}
	positions := make(map[int64]int64, len(progress))
	totals := make(map[int64]int64, len(progress))
	for _, p := range progress {
		positions[p.BookID] = p.Page
		totals[p.BookID] = p.TotalPages
	}

	entries := make([]LibraryEntry, 0, len(books))
	for _, b := range books {
		entries = append(entries, LibraryEntry{
			Book:       h.bookToResponse(b),
			Page:       positions[b.ID],
			TotalPages: totals[b.ID],
		})
	}

	WriteSuccess(w, entries, nil)
}
