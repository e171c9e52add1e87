// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/olegiv/inkwell-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "inkwell-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, email string) model.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func createTestBook(t *testing.T, q *Queries, slug string) model.Book {
	t.Helper()
	b, err := q.CreateBook(context.Background(), CreateBookParams{
		Slug:       slug,
		Title:      "Test Book",
		Author:     "Test Author",
		PriceCents: 1499,
		Body:       "Page one.\n\n---\n\nPage two.",
	})
	if err != nil {
		t.Fatalf("CreateBook: %v", err)
	}
	return b
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "reader@example.com",
		Name:         "A Reader",
		PasswordHash: "hashed-password",
		Role:         model.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Email != "reader@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "reader@example.com")
	}
	if user.Role != model.RoleCustomer {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleCustomer)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	_, err := q.GetUserByEmail(context.Background(), "nonexistent@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "dup@example.com")

	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        "dup@example.com",
		Name:         "Another",
		PasswordHash: "hash",
		Role:         model.RoleCustomer,
	})
	if err == nil {
		t.Error("expected unique constraint error for duplicate email")
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "profile@example.com")

	updated, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ID:         user.ID,
		Name:       "New Name",
		AvatarPath: "avatars/a.png",
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("Name = %q, want %q", updated.Name, "New Name")
	}
	if !updated.AvatarPath.Valid || updated.AvatarPath.String != "avatars/a.png" {
		t.Errorf("AvatarPath = %+v, want avatars/a.png", updated.AvatarPath)
	}
}

func TestCreateAndGetBook(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	book := createTestBook(t, q, "test-book")

	bySlug, err := q.GetBookBySlug(ctx, "test-book")
	if err != nil {
		t.Fatalf("GetBookBySlug: %v", err)
	}
	if bySlug.ID != book.ID {
		t.Errorf("ID = %d, want %d", bySlug.ID, book.ID)
	}
	if bySlug.PriceCents != 1499 {
		t.Errorf("PriceCents = %d, want 1499", bySlug.PriceCents)
	}
}

func TestListBooks_Pagination(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	for _, slug := range []string{"alpha", "beta", "gamma"} {
		createTestBook(t, q, slug)
	}

	page, err := q.ListBooks(ctx, ListBooksParams{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("len(page) = %d, want 2", len(page))
	}

	total, err := q.CountBooks(ctx)
	if err != nil {
		t.Fatalf("CountBooks: %v", err)
	}
	if total != 3 {
		t.Errorf("CountBooks = %d, want 3", total)
	}
}

func TestSlugExistsExcluding(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	book := createTestBook(t, q, "taken")

	exists, err := q.SlugExistsExcluding(ctx, "taken", book.ID)
	if err != nil {
		t.Fatalf("SlugExistsExcluding: %v", err)
	}
	if exists {
		t.Error("slug should not count as taken by its own book")
	}

	exists, err = q.SlugExistsExcluding(ctx, "taken", book.ID+1)
	if err != nil {
		t.Fatalf("SlugExistsExcluding: %v", err)
	}
	if !exists {
		t.Error("slug should count as taken by a different book")
	}
}

func TestOrderLifecycleQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "buyer@example.com")
	book := createTestBook(t, q, "order-book")

	order, err := q.CreateOrder(ctx, CreateOrderParams{
		UserID:     user.ID,
		UserEmail:  user.Email,
		BookID:     book.ID,
		BookTitle:  book.Title,
		PriceCents: book.PriceCents,
		ProofPath:  "uploads/proof.png",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Status != model.OrderStatusPending {
		t.Errorf("Status = %q, want pending", order.Status)
	}
	if order.BookTitle != "Test Book" {
		t.Errorf("BookTitle = %q, want snapshot of book title", order.BookTitle)
	}

	pending, err := q.CountPendingOrdersForUserBook(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("CountPendingOrdersForUserBook: %v", err)
	}
	if pending != 1 {
		t.Errorf("pending count = %d, want 1", pending)
	}

	updated, err := q.UpdateOrderStatus(ctx, UpdateOrderStatusParams{
		ID:         order.ID,
		Status:     model.OrderStatusCompleted,
		ResolvedBy: user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if updated.Status != model.OrderStatusCompleted {
		t.Errorf("Status = %q, want completed", updated.Status)
	}
	if !updated.ResolvedAt.Valid {
		t.Error("ResolvedAt should be set after resolution")
	}
}

func TestOrderSurvivesBookDelete(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "keeper@example.com")
	book := createTestBook(t, q, "doomed")

	order, err := q.CreateOrder(ctx, CreateOrderParams{
		UserID:     user.ID,
		UserEmail:  user.Email,
		BookID:     book.ID,
		BookTitle:  book.Title,
		PriceCents: book.PriceCents,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := q.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}

	got, err := q.GetOrderByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrderByID after book delete: %v", err)
	}
	if got.BookTitle != "Test Book" {
		t.Errorf("BookTitle = %q, want snapshot preserved", got.BookTitle)
	}
	if got.PriceCents != 1499 {
		t.Errorf("PriceCents = %d, want snapshot preserved", got.PriceCents)
	}
}

func TestListOrders_StatusFilter(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "filter@example.com")
	book := createTestBook(t, q, "filter-book")

	for range 3 {
		if _, err := q.CreateOrder(ctx, CreateOrderParams{
			UserID:     user.ID,
			UserEmail:  user.Email,
			BookID:     book.ID,
			BookTitle:  book.Title,
			PriceCents: book.PriceCents,
		}); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
	}

	all, err := q.ListOrders(ctx, ListOrdersParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	completed, err := q.ListOrders(ctx, ListOrdersParams{
		Status: model.OrderStatusCompleted,
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("ListOrders completed: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("len(completed) = %d, want 0", len(completed))
	}
}

func TestPurchases(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "owner@example.com")
	book := createTestBook(t, q, "owned")

	has, err := q.HasPurchase(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("HasPurchase: %v", err)
	}
	if has {
		t.Error("should not have purchase before grant")
	}

	if err := q.AddPurchase(ctx, user.ID, book.ID); err != nil {
		t.Fatalf("AddPurchase: %v", err)
	}
	// Granting twice must not fail.
	if err := q.AddPurchase(ctx, user.ID, book.ID); err != nil {
		t.Fatalf("AddPurchase twice: %v", err)
	}

	has, err = q.HasPurchase(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("HasPurchase: %v", err)
	}
	if !has {
		t.Error("should have purchase after grant")
	}

	ids, err := q.ListPurchaseBookIDs(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListPurchaseBookIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != book.ID {
		t.Errorf("ids = %v, want [%d]", ids, book.ID)
	}

	library, err := q.ListPurchasedBooks(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListPurchasedBooks: %v", err)
	}
	if len(library) != 1 || library[0].ID != book.ID {
		t.Errorf("library = %d books, want the granted one", len(library))
	}

	if err := q.RemovePurchase(ctx, user.ID, book.ID); err != nil {
		t.Fatalf("RemovePurchase: %v", err)
	}
	has, err = q.HasPurchase(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("HasPurchase: %v", err)
	}
	if has {
		t.Error("should not have purchase after removal")
	}
}

func TestUpsertProgress(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "progress@example.com")
	book := createTestBook(t, q, "progress-book")

	if err := q.UpsertProgress(ctx, UpsertProgressParams{
		UserID: user.ID, BookID: book.ID, Page: 1, TotalPages: 5,
	}); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}

	if err := q.UpsertProgress(ctx, UpsertProgressParams{
		UserID: user.ID, BookID: book.ID, Page: 3, TotalPages: 5,
	}); err != nil {
		t.Fatalf("UpsertProgress update: %v", err)
	}

	p, err := q.GetProgress(ctx, user.ID, book.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Page != 3 {
		t.Errorf("Page = %d, want 3", p.Page)
	}
	if p.TotalPages != 5 {
		t.Errorf("TotalPages = %d, want 5", p.TotalPages)
	}
}

func TestCreateAndListEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if err := q.CreateEvent(ctx, CreateEventParams{
		Level:    model.EventLevelInfo,
		Category: model.EventCategoryOrder,
		Message:  "order approved",
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	events, err := q.ListEvents(ctx, ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, want default {}", events[0].Metadata)
	}

	n, err := q.CountEvents(ctx, model.EventCategoryOrder)
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("CountEvents = %d, want 1", n)
	}
}
