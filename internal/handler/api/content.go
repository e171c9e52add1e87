// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/content"
	"github.com/olegiv/inkwell-go/internal/handler"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
)

// contentCacheTTL bounds how long split pages and rendered HTML stay
// cached. Book updates invalidate eagerly; the TTL covers direct edits
// to content files on disk.
const contentCacheTTL = 15 * time.Minute

// PageResponse is one reader page of a book.
type PageResponse struct {
	BookID     int64  `json:"book_id"`
	Page       int64  `json:"page"`
	TotalPages int64  `json:"total_pages"`
	Content    string `json:"content"`
	Format     string `json:"format"`
}

// ProgressResponse reports a saved reading position.
type ProgressResponse struct {
	BookID     int64      `json:"book_id"`
	Page       int64      `json:"page"`
	TotalPages int64      `json:"total_pages"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
}

func progressToResponse(p model.ReadingProgress) ProgressResponse {
	resp := ProgressResponse{
		BookID:     p.BookID,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
	if !p.LastReadAt.IsZero() {
		resp.LastReadAt = &p.LastReadAt
	}
	return resp
}

// ReadBook handles GET /api/v1/books/{id}/content?page=N&format=html|markdown.
// Requires an access grant for the book; reading a page records it as the
// caller's position. Without ?page the saved position is served.
func (h *Handler) ReadBook(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	book, ok := requireEntityByID(w, r, "book", func(id int64) (model.Book, error) {
		return h.queries.GetBookByID(r.Context(), id)
	})
	if !ok {
		return
	}

	granted, err := h.access.HasAccess(r.Context(), user.ID, book.ID)
	if err != nil {
		WriteInternalError(w, "Failed to check access")
		return
	}
	if !granted && !user.IsAdmin() {
		WriteForbidden(w, "You do not own this book")
		return
	}

	pages, err := h.bookPages(r.Context(), &book)
	if err != nil {
		WriteInternalError(w, "Failed to load book content")
		return
	}
	totalPages := int64(len(pages))

	var page int64
	if r.URL.Query().Get("page") == "" {
		pos, err := h.reading.Position(r.Context(), user.ID, book.ID)
		if err != nil {
			WriteInternalError(w, "Failed to load reading position")
			return
		}
		page = pos.Page
		if page > totalPages {
			// The book shrank since the position was saved.
			page = totalPages
		}
	} else {
		page = int64(handler.ParseIntParam(r, "page", 1, 1, 0))
	}
	if page < 1 || page > totalPages {
		WriteBadRequest(w, "Page out of range", map[string]string{
			"page": "Must be between 1 and the book's page count",
		})
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}

	var body string
	switch format {
	case "markdown":
		body = pages[page-1]
	case "html":
		body, err = h.renderedPage(r.Context(), book.ID, page, pages[page-1])
		if err != nil {
			WriteInternalError(w, "Failed to render page")
			return
		}
	default:
		WriteBadRequest(w, "Unknown format", map[string]string{
			"format": "Must be html or markdown",
		})
		return
	}

	// Admins previewing books they do not own leave no progress trail.
	if granted {
		if _, err := h.reading.Record(r.Context(), user.ID, book.ID, page, totalPages); err != nil {
			WriteInternalError(w, "Failed to record reading position")
			return
		}
	}

	WriteSuccess(w, PageResponse{
		BookID:     book.ID,
		Page:       page,
		TotalPages: totalPages,
		Content:    body,
		Format:     format,
	}, nil)
}

// GetProgress handles GET /api/v1/books/{id}/progress.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	bookID, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid book ID", nil)
		return
	}

	pos, err := h.reading.Position(r.Context(), user.ID, bookID)
	if err != nil {
		WriteInternalError(w, "Failed to load reading position")
		return
	}
	WriteSuccess(w, progressToResponse(pos), nil)
}

// DeleteProgress handles DELETE /api/v1/books/{id}/progress. The book starts
// over from page 1 on the next read.
func (h *Handler) DeleteProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	bookID, err := handler.ParseIDParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid book ID", nil)
		return
	}

	if err := h.reading.Forget(r.Context(), user.ID, bookID); err != nil {
		WriteInternalError(w, "Failed to reset reading position")
		return
	}
	WriteSuccess(w, map[string]string{"message": "Progress reset"}, nil)
}

// ListProgress handles GET /api/v1/account/progress. Returns all of the
// caller's saved positions, most recently read first.
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	all, err := h.reading.All(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load reading progress")
		return
	}

	responses := make([]ProgressResponse, 0, len(all))
	for _, p := range all {
		responses = append(responses, progressToResponse(p))
	}
	WriteSuccess(w, responses, nil)
}

// bookPages returns the book's reader pages, cached.
func (h *Handler) bookPages(ctx context.Context, book *model.Book) ([]string, error) {
	key := cache.BookPagesKey(book.ID)
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, key); err == nil {
			var pages []string
			if err := json.Unmarshal(data, &pages); err == nil {
				return pages, nil
			}
		}
	}

	pages, err := h.content.Pages(book)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if data, err := json.Marshal(pages); err == nil {
			_ = h.cache.Set(ctx, key, data, contentCacheTTL)
		}
	}
	return pages, nil
}

// renderedPage returns one page rendered to sanitized HTML, cached per
// (book, page).
func (h *Handler) renderedPage(ctx context.Context, bookID, page int64, markdown string) (string, error) {
	key := cache.BookHTMLKey(bookID, page)
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, key); err == nil {
			return string(data), nil
		}
	}

	html, err := content.RenderHTML(markdown)
	if err != nil {
		return "", err
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, key, []byte(html), contentCacheTTL)
	}
	return html, nil
}
