// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/inkwell-go/internal/auth"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
)

// UpdateProfileRequest represents the request body for profile changes.
// Nil fields keep their current value.
type UpdateProfileRequest struct {
	Name       *string `json:"name,omitempty"`
	AvatarPath *string `json:"avatar_path,omitempty"`
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AccountResponse summarizes the caller's holdings: granted book IDs and
// a per-book reading position map.
type AccountResponse struct {
	User     UserResponse               `json:"user"`
	BookIDs  []int64                    `json:"book_ids"`
	Progress map[int64]ProgressResponse `json:"progress"`
}

// Account handles GET /api/v1/account.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	bookIDs, err := h.access.GrantedBookIDs(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load access grants")
		return
	}

	all, err := h.reading.All(r.Context(), user.ID)
	if err != nil {
		WriteInternalError(w, "Failed to load reading progress")
		return
	}
	progress := make(map[int64]ProgressResponse, len(all))
	for _, p := range all {
		progress[p.BookID] = progressToResponse(p)
	}

	if bookIDs == nil {
		bookIDs = []int64{}
	}
	WriteSuccess(w, AccountResponse{
		User:     h.userToResponse(*user),
		BookIDs:  bookIDs,
		Progress: progress,
	}, nil)
}

// RecordProgressRequest represents an explicit progress update.
type RecordProgressRequest struct {
	BookID int64 `json:"book_id"`
	Page   int64 `json:"page"`
}

// RecordProgress handles POST /api/v1/account/progress. The page must fall
// within the book and the caller must own it.
func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req RecordProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.BookID <= 0 || req.Page < 1 {
		WriteValidationError(w, map[string]string{
			"page": "Book ID and a 1-based page are required",
		})
		return
	}

	granted, err := h.access.HasAccess(r.Context(), user.ID, req.BookID)
	if err != nil {
		WriteInternalError(w, "Failed to check access")
		return
	}
	if !granted {
		WriteForbidden(w, "You do not own this book")
		return
	}

	book, err := h.queries.GetBookByID(r.Context(), req.BookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Book not found")
		} else {
			WriteInternalError(w, "Failed to retrieve book")
		}
		return
	}

	pages, err := h.bookPages(r.Context(), &book)
	if err != nil {
		WriteInternalError(w, "Failed to load book content")
		return
	}
	totalPages := int64(len(pages))
	if req.Page > totalPages {
		WriteValidationError(w, map[string]string{
			"page": "Page exceeds the book's page count",
		})
		return
	}

	if _, err := h.reading.Record(r.Context(), user.ID, req.BookID, req.Page, totalPages); err != nil {
		WriteInternalError(w, "Failed to record reading position")
		return
	}

	pos, err := h.reading.Position(r.Context(), user.ID, req.BookID)
	if err != nil {
		WriteInternalError(w, "Failed to load reading position")
		return
	}
	WriteSuccess(w, progressToResponse(pos), nil)
}

// UpdateProfile handles PUT /api/v1/account.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := store.UpdateUserProfileParams{
		ID:         user.ID,
		Name:       user.Name,
		AvatarPath: user.AvatarPath.String,
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
		if params.Name == "" {
			WriteValidationError(w, map[string]string{"name": "Name must not be empty"})
			return
		}
	}

	var oldAvatar string
	if req.AvatarPath != nil && *req.AvatarPath != user.AvatarPath.String {
		oldAvatar = user.AvatarPath.String
		params.AvatarPath = *req.AvatarPath
	}

	updated, err := h.queries.UpdateUserProfile(r.Context(), params)
	if err != nil {
		WriteInternalError(w, "Failed to update profile")
		return
	}

	if oldAvatar != "" {
		if err := h.media.Delete(oldAvatar); err != nil {
			h.events.LogError(r.Context(), model.EventCategoryUser,
				"failed to delete replaced avatar", &user.ID, "", nil)
		}
	}

	h.events.LogUserEvent(r.Context(), model.EventLevelInfo, "profile updated",
		&user.ID, middleware.GetClientIP(r), nil)

	WriteSuccess(w, h.userToResponse(updated), nil)
}

// ChangePassword handles PUT /api/v1/account/password. Requires the current
// password and destroys no sessions other than forcing a token renewal.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	match, err := auth.CheckPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !match {
		WriteUnauthorized(w, "Current password is incorrect")
		return
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		WriteValidationError(w, map[string]string{"new_password": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		WriteInternalError(w, "Failed to change password")
		return
	}

	if err := h.queries.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		WriteInternalError(w, "Failed to change password")
		return
	}

	// Rotate the session token so an old cookie cannot ride the change.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Failed to renew session")
		return
	}

	h.events.LogUserEvent(r.Context(), model.EventLevelInfo, "password changed",
		&user.ID, middleware.GetClientIP(r), nil)

	WriteSuccess(w, map[string]string{"message": "Password changed"}, nil)
}
