// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/olegiv/inkwell-go/internal/access"
	"github.com/olegiv/inkwell-go/internal/auth"
	"github.com/olegiv/inkwell-go/internal/cache"
	"github.com/olegiv/inkwell-go/internal/content"
	"github.com/olegiv/inkwell-go/internal/ledger"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/reading"
	"github.com/olegiv/inkwell-go/internal/service"
)

// testDB creates an in-memory SQLite database with the storefront schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'customer',
			avatar_path TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);

		CREATE TABLE books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			price_cents INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			cover_path TEXT,
			theme TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			content_file TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			user_email TEXT NOT NULL,
			book_id INTEGER NOT NULL,
			book_title TEXT NOT NULL,
			price_cents INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			proof_path TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			resolved_at DATETIME,
			resolved_by INTEGER
		);

		CREATE TABLE purchases (
			user_id INTEGER NOT NULL,
			book_id INTEGER NOT NULL,
			granted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, book_id)
		);

		CREATE TABLE reading_progress (
			user_id INTEGER NOT NULL,
			book_id INTEGER NOT NULL,
			page INTEGER NOT NULL DEFAULT 1,
			total_pages INTEGER NOT NULL DEFAULT 1,
			last_read_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, book_id)
		);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			user_id INTEGER,
			ip_address TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSetup creates a test database and a fully wired API handler. The
// content and upload directories live under t.TempDir().
func testSetup(t *testing.T) (*sql.DB, *Handler) {
	t.Helper()

	db := testDB(t)
	c := cache.NewSimpleMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	uploadDir := t.TempDir()

	h := NewHandler(Deps{
		DB:       db,
		Sessions: scs.New(),
		Ledger:   ledger.New(db, c),
		Access:   access.New(db, c),
		Reading:  reading.New(db),
		Content:  content.NewSource(t.TempDir()),
		Cache:    c,
		Media:    service.NewMediaService(uploadDir, service.DefaultMaxUploadBytes),
		Events:   service.NewEventService(db),
	})
	return db, h
}

// testPassword is the plaintext behind every test user's hash.
const testPassword = "correct-horse-battery"

var (
	testHashOnce     sync.Once
	testPasswordHash string
)

// testHash returns an argon2id digest of testPassword, computed once.
func testHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("failed to hash test password: %v", err)
		}
		testPasswordHash = hash
	})
	return testPasswordHash
}

// createTestUser inserts a user and returns it. The password hash
// verifies against testPassword so login paths can exercise it.
func createTestUser(t *testing.T, db *sql.DB, email, role string) model.User {
	t.Helper()
	now := time.Now()
	hash := testHash(t)

	result, err := db.Exec(
		`INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		email, "Test User", hash, role, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	id, _ := result.LastInsertId()
	return model.User{
		ID:           id,
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// createTestBook inserts a book with an inline body and returns it.
func createTestBook(t *testing.T, db *sql.DB, slug, title string, priceCents int64, body string) model.Book {
	t.Helper()
	now := time.Now()

	result, err := db.Exec(
		`INSERT INTO books (slug, title, author, price_cents, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		slug, title, "Test Author", priceCents, body, now, now,
	)
	if err != nil {
		t.Fatalf("failed to create test book: %v", err)
	}

	id, _ := result.LastInsertId()
	return model.Book{
		ID:         id,
		Slug:       slug,
		Title:      title,
		Author:     "Test Author",
		PriceCents: priceCents,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// grantPurchase gives a user access to a book directly.
func grantPurchase(t *testing.T, db *sql.DB, userID, bookID int64) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO purchases (user_id, book_id, granted_at) VALUES (?, ?, ?)`,
		userID, bookID, time.Now(),
	); err != nil {
		t.Fatalf("failed to grant purchase: %v", err)
	}
}

// createTestOrder inserts an order in the given status and returns its ID.
func createTestOrder(t *testing.T, db *sql.DB, userID, bookID int64, status string) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO orders (user_id, user_email, book_id, book_title, price_cents, status, proof_path, created_at)
		 VALUES (?, 'buyer@example.com', ?, 'Test Book', 999, ?, 'proof/u/p.jpg', ?)`,
		userID, bookID, status, time.Now(),
	)
	if err != nil {
		t.Fatalf("failed to create test order: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

// requestWithUser attaches an authenticated user to the request context.
func requestWithUser(r *http.Request, user model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path string, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newDeleteRequest creates an HTTP DELETE request with optional URL params.
func newDeleteRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// listResponse is a generic wrapper for API list responses with data and meta.
type listResponse[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data
}

// unmarshalList unmarshals a JSON list response body into the specified type.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) ([]T, *Meta) {
	t.Helper()
	var resp listResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp.Data, resp.Meta
}

// unmarshalError unmarshals an error response body.
func unmarshalError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}
	return resp.Error
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}
