// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/handler"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
	"github.com/olegiv/inkwell-go/internal/util"
)

// BookResponse represents a catalog entry in API responses.
type BookResponse struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Theme       string    `json:"theme,omitempty"`
	PageCount   int       `json:"page_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateBookRequest represents the request body for creating a book.
type CreateBookRequest struct {
	Slug        string `json:"slug,omitempty"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description,omitempty"`
	CoverPath   string `json:"cover_path,omitempty"`
	Theme       string `json:"theme,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentFile string `json:"content_file,omitempty"`
}

// UpdateBookRequest represents the request body for updating a book.
// Nil fields keep their current value.
type UpdateBookRequest struct {
	Slug        *string `json:"slug,omitempty"`
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty"`
	Description *string `json:"description,omitempty"`
	CoverPath   *string `json:"cover_path,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	Body        *string `json:"body,omitempty"`
	ContentFile *string `json:"content_file,omitempty"`
}

// bookToResponse converts a model.Book to BookResponse.
func (h *Handler) bookToResponse(b model.Book) BookResponse {
	resp := BookResponse{
		ID:          b.ID,
		Slug:        b.Slug,
		Title:       b.Title,
		Author:      b.Author,
		PriceCents:  b.PriceCents,
		Description: b.Description,
		Theme:       b.Theme,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.CoverPath.Valid && b.CoverPath.String != "" {
		resp.CoverURL = h.media.URL(b.CoverPath.String, "")
	}
	if pages, err := h.content.Pages(&b); err == nil {
		resp.PageCount = len(pages)
	}
	return resp
}

// ListBooks handles GET /api/v1/books
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, handler.DefaultPerPage, handler.MaxPerPage)
	offset := (page - 1) * perPage

	books, err := h.queries.ListBooks(r.Context(), store.ListBooksParams{
		Limit:  int64(perPage),
		Offset: int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list books")
		return
	}

	total, err := h.queries.CountBooks(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to count books")
		return
	}

	responses := make([]BookResponse, 0, len(books))
	for _, b := range books {
		responses = append(responses, h.bookToResponse(b))
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(total, perPage),
	})
}

// GetBook handles GET /api/v1/books/{id}
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := requireEntityByID(w, r, "book", func(id int64) (model.Book, error) {
		return h.queries.GetBookByID(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, h.bookToResponse(book), nil)
}

// GetBookBySlug handles GET /api/v1/books/slug/{slug}
func (h *Handler) GetBookBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" || !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid slug", nil)
		return
	}

	book, err := h.queries.GetBookBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Book not found")
		} else {
			WriteInternalError(w, "Failed to retrieve book")
		}
		return
	}
	WriteSuccess(w, h.bookToResponse(book), nil)
}

// CreateBook handles POST /api/v1/books (admin).
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Author == "" {
		fieldErrors["author"] = "Author is required"
	}
	if req.PriceCents < 0 {
		fieldErrors["price_cents"] = "Price must not be negative"
	}
	if req.Body != "" && req.ContentFile != "" {
		fieldErrors["body"] = "Provide either an inline body or a content file, not both"
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(slug) {
		fieldErrors["slug"] = "Invalid slug format"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	exists, err := h.queries.SlugExists(r.Context(), slug)
	if err != nil {
		WriteInternalError(w, "Failed to check slug")
		return
	}
	if exists {
		WriteConflict(w, "slug_taken", "A book with this slug already exists")
		return
	}

	book, err := h.queries.CreateBook(r.Context(), store.CreateBookParams{
		Slug:        slug,
		Title:       req.Title,
		Author:      req.Author,
		PriceCents:  req.PriceCents,
		Description: req.Description,
		CoverPath:   req.CoverPath,
		Theme:       req.Theme,
		Body:        req.Body,
		ContentFile: req.ContentFile,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create book")
		return
	}

	h.events.LogBookEvent(r.Context(), model.EventLevelInfo, "book created: "+book.Title,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"book_id": book.ID, "slug": book.Slug})

	WriteCreated(w, h.bookToResponse(book))
}

// UpdateBook handles PUT /api/v1/books/{id} (admin).
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	book, ok := requireEntityByID(w, r, "book", func(id int64) (model.Book, error) {
		return h.queries.GetBookByID(r.Context(), id)
	})
	if !ok {
		return
	}

	var req UpdateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := store.UpdateBookParams{
		ID:          book.ID,
		Slug:        book.Slug,
		Title:       book.Title,
		Author:      book.Author,
		PriceCents:  book.PriceCents,
		Description: book.Description,
		CoverPath:   book.CoverPath.String,
		Theme:       book.Theme,
		Body:        book.Body,
		ContentFile: book.ContentFile.String,
	}

	fieldErrors := make(map[string]string)
	if req.Title != nil {
		params.Title = strings.TrimSpace(*req.Title)
		if params.Title == "" {
			fieldErrors["title"] = "Title must not be empty"
		}
	}
	if req.Author != nil {
		params.Author = strings.TrimSpace(*req.Author)
		if params.Author == "" {
			fieldErrors["author"] = "Author must not be empty"
		}
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			fieldErrors["price_cents"] = "Price must not be negative"
		}
		params.PriceCents = *req.PriceCents
	}
	if req.Slug != nil {
		params.Slug = *req.Slug
		if !util.IsValidSlug(params.Slug) {
			fieldErrors["slug"] = "Invalid slug format"
		}
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.CoverPath != nil {
		params.CoverPath = *req.CoverPath
	}
	if req.Theme != nil {
		params.Theme = *req.Theme
	}
	if req.Body != nil {
		params.Body = *req.Body
	}
	if req.ContentFile != nil {
		params.ContentFile = *req.ContentFile
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if params.Slug != book.Slug {
		exists, err := h.queries.SlugExistsExcluding(r.Context(), params.Slug, book.ID)
		if err != nil {
			WriteInternalError(w, "Failed to check slug")
			return
		}
		if exists {
			WriteConflict(w, "slug_taken", "A book with this slug already exists")
			return
		}
	}

	updated, err := h.queries.UpdateBook(r.Context(), params)
	if err != nil {
		WriteInternalError(w, "Failed to update book")
		return
	}

	h.invalidateBookCache(r.Context(), book.ID)
	h.events.LogBookEvent(r.Context(), model.EventLevelInfo, "book updated: "+updated.Title,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"book_id": updated.ID})

	WriteSuccess(w, h.bookToResponse(updated), nil)
}

// DeleteBook handles DELETE /api/v1/books/{id} (admin). Orders referencing
// the book keep their snapshots; only the catalog entry goes away.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	book, ok := requireEntityByID(w, r, "book", func(id int64) (model.Book, error) {
		return h.queries.GetBookByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteBook(r.Context(), book.ID); err != nil {
		WriteInternalError(w, "Failed to delete book")
		return
	}

	if book.CoverPath.Valid && book.CoverPath.String != "" {
		if err := h.media.Delete(book.CoverPath.String); err != nil {
			h.events.LogError(r.Context(), model.EventCategoryBook,
				"failed to delete cover files for book "+book.Slug, nil, "", nil)
		}
	}

	h.invalidateBookCache(r.Context(), book.ID)
	h.events.LogBookEvent(r.Context(), model.EventLevelInfo, "book deleted: "+book.Title,
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r),
		map[string]any{"book_id": book.ID, "slug": book.Slug})

	WriteSuccess(w, map[string]string{"message": "Book deleted"}, nil)
}

// invalidateBookCache drops cached pages and rendered HTML for a book.
func (h *Handler) invalidateBookCache(ctx context.Context, bookID int64) {
	if h.cache == nil {
		return
	}
	_ = h.cache.DeleteByPrefix(ctx, cache.BookPrefix(bookID))
}
