// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Book, Order, and reading progress structures.
package model

import (
	"database/sql"
	"time"
)

// User roles. Admin status is a stored role attribute, never derived from
// the email address.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// User represents a storefront account.
type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"` // Never expose in JSON
	Role         string         `json:"role"`
	AvatarPath   sql.NullString `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLoginAt  sql.NullTime   `json:"last_login_at,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
