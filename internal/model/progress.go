// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// ReadingProgress records how far a user has read one book. Progress is
// scoped per (user, book) and never shared across users.
type ReadingProgress struct {
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	Page       int64     `json:"page"`
	TotalPages int64     `json:"total_pages"`
	LastReadAt time.Time `json:"last_read_at"`
}
