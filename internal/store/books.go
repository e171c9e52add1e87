// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/inkwell-go/internal/model"
)

const bookColumns = `id, slug, title, author, price_cents, description,
	cover_path, theme, body, content_file, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (model.Book, error) {
	var b model.Book
	err := row.Scan(
		&b.ID, &b.Slug, &b.Title, &b.Author, &b.PriceCents, &b.Description,
		&b.CoverPath, &b.Theme, &b.Body, &b.ContentFile, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func collectBooks(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close() error
}) ([]model.Book, error) {
	defer rows.Close()
	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CreateBookParams holds the fields for creating a book.
type CreateBookParams struct {
	Slug        string
	Title       string
	Author      string
	PriceCents  int64
	Description string
	CoverPath   string
	Theme       string
	Body        string
	ContentFile string
}

// CreateBook inserts a new catalog entry and returns the stored row.
func (q *Queries) CreateBook(ctx context.Context, arg CreateBookParams) (model.Book, error) {
	now := time.Now()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO books (slug, title, author, price_cents, description,
			cover_path, theme, body, content_file, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?)
		RETURNING `+bookColumns,
		arg.Slug, arg.Title, arg.Author, arg.PriceCents, arg.Description,
		arg.CoverPath, arg.Theme, arg.Body, arg.ContentFile, now, now,
	)
	return scanBook(row)
}

// GetBookByID fetches a book by primary key.
func (q *Queries) GetBookByID(ctx context.Context, id int64) (model.Book, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	return scanBook(row)
}

// GetBookBySlug fetches a book by its URL slug.
func (q *Queries) GetBookBySlug(ctx context.Context, slug string) (model.Book, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE slug = ?`, slug)
	return scanBook(row)
}

// ListBooksParams controls catalog pagination.
type ListBooksParams struct {
	Limit  int64
	Offset int64
}

// ListBooks returns a page of the catalog ordered by title.
func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]model.Book, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY title, id LIMIT ? OFFSET ?`,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

// CountBooks returns the catalog size.
func (q *Queries) CountBooks(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// UpdateBookParams holds the fields for replacing a book's attributes.
type UpdateBookParams struct {
	ID          int64
	Slug        string
	Title       string
	Author      string
	PriceCents  int64
	Description string
	CoverPath   string
	Theme       string
	Body        string
	ContentFile string
}

// UpdateBook replaces a book's attributes and returns the stored row.
func (q *Queries) UpdateBook(ctx context.Context, arg UpdateBookParams) (model.Book, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE books SET slug = ?, title = ?, author = ?, price_cents = ?,
			description = ?, cover_path = NULLIF(?, ''), theme = ?, body = ?,
			content_file = NULLIF(?, ''), updated_at = ?
		WHERE id = ?
		RETURNING `+bookColumns,
		arg.Slug, arg.Title, arg.Author, arg.PriceCents, arg.Description,
		arg.CoverPath, arg.Theme, arg.Body, arg.ContentFile, time.Now(), arg.ID,
	)
	return scanBook(row)
}

// DeleteBook removes a book from the catalog. Orders keep their snapshot
// of the title and price.
func (q *Queries) DeleteBook(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	return err
}

// SlugExists reports whether any book uses the given slug.
func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// SlugExistsExcluding reports whether a slug is taken by a different book.
func (q *Queries) SlugExistsExcluding(ctx context.Context, slug string, id int64) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE slug = ? AND id != ?`, slug, id).Scan(&n)
	return n > 0, err
}

// ListPurchasedBooks returns the user's library ordered by grant time,
// newest first. Books deleted from the catalog are omitted.
func (q *Queries) ListPurchasedBooks(ctx context.Context, userID int64) ([]model.Book, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT b.id, b.slug, b.title, b.author, b.price_cents, b.description,
			b.cover_path, b.theme, b.body, b.content_file, b.created_at, b.updated_at
		FROM books b
		JOIN purchases p ON p.book_id = b.id
		WHERE p.user_id = ?
		ORDER BY p.granted_at DESC, b.id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}
