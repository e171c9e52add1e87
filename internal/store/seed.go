// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/inkwell-go/internal/auth"
	"github.com/olegiv/inkwell-go/internal/model"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates the initial admin user and a starter catalog. Safe to call
// on every startup: it does nothing once the admin user exists.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	if err := seedCatalog(ctx, queries); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	return nil
}

func seedCatalog(ctx context.Context, queries *Queries) error {
	n, err := queries.CountBooks(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	starter := []CreateBookParams{
		{
			Slug:        "the-art-of-focus",
			Title:       "The Art of Focus",
			Author:      "Elena Marsh",
			PriceCents:  1499,
			Description: "A practical guide to deep work in a distracted world.",
			Theme:       "from-amber-500 to-orange-600",
			Body: "Focus is a skill, not a gift.\n\n---\n\n" +
				"The first step is subtraction: remove what competes for attention.\n\n---\n\n" +
				"The second is ritual: make the start of deep work automatic.",
		},
		{
			Slug:        "letters-from-the-harbor",
			Title:       "Letters from the Harbor",
			Author:      "Tomas Reyes",
			PriceCents:  999,
			Description: "Collected essays on craft, patience, and the sea.",
			Theme:       "from-sky-500 to-indigo-600",
			Body: "Every harbor keeps two kinds of ships.\n\n---\n\n" +
				"Those that wait for weather, and those that make their own.",
		},
	}

	for _, b := range starter {
		book, err := queries.CreateBook(ctx, b)
		if err != nil {
			return fmt.Errorf("creating book %q: %w", b.Title, err)
		}
		slog.Info("seeded book", "id", book.ID, "title", book.Title)
	}

	return nil
}
