// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Book represents a catalog entry. The body either lives inline in Body or
// is referenced as a file under the content directory via ContentFile.
type Book struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	PriceCents  int64          `json:"price_cents"`
	Description string         `json:"description"`
	CoverPath   sql.NullString `json:"-"`
	Theme       string         `json:"theme"`
	Body        string         `json:"-"`
	ContentFile sql.NullString `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// HasInlineBody returns true when the book content is stored inline
// rather than referenced as a content file.
func (b *Book) HasInlineBody() bool {
	return !b.ContentFile.Valid || b.ContentFile.String == ""
}

// Price returns the price in whole currency units.
func (b *Book) Price() float64 {
	return float64(b.PriceCents) / 100
}
