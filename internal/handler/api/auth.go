// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/inkwell-go/internal/auth"
	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
)

// UserResponse represents an account in API responses.
type UserResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// SignupRequest represents the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userToResponse converts a model.User to UserResponse.
func (h *Handler) userToResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.AvatarPath.Valid && u.AvatarPath.String != "" {
		resp.AvatarURL = h.media.URL(u.AvatarPath.String, "thumbnail")
	}
	if u.LastLoginAt.Valid {
		resp.LastLoginAt = &u.LastLoginAt.Time
	}
	return resp
}

// loginMetadata builds audit metadata from the request: client, OS and
// country when the GeoIP database is loaded.
func (h *Handler) loginMetadata(r *http.Request, ip string) map[string]any {
	ua := useragent.Parse(r.UserAgent())
	metadata := map[string]any{
		"browser": ua.Name,
		"os":      ua.OS,
	}
	if h.geoip != nil && h.geoip.IsEnabled() {
		if country := h.geoip.LookupCountry(ip); country != "" {
			metadata["country"] = country
		}
	}
	return metadata
}

// Signup handles POST /api/v1/auth/signup. New accounts always get the
// customer role.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	email, err := auth.NormalizeEmail(req.Email)
	if err != nil {
		fieldErrors["email"] = "Invalid email address"
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		fieldErrors["password"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	exists, err := h.queries.UserEmailExists(r.Context(), email)
	if err != nil {
		WriteInternalError(w, "Failed to check email")
		return
	}
	if exists {
		WriteConflict(w, "email_taken", "An account with this email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		WriteInternalError(w, "Failed to create account")
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create account")
		return
	}

	// Log the new account in right away.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Failed to create session")
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	ip := middleware.GetClientIP(r)
	h.events.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"account created: "+user.Email, &user.ID, ip, h.loginMetadata(r, ip))

	WriteCreated(w, h.userToResponse(user))
}

// Login handles POST /api/v1/auth/login. Failed attempts count toward the
// account lockout; a success clears them.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := auth.NormalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	ip := middleware.GetClientIP(r)

	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(email); locked {
			h.events.LogAuthEvent(r.Context(), model.EventLevelWarning,
				"login attempt on locked account: "+email, nil, ip, nil)
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				fmt.Sprintf("Account temporarily locked. Try again in %s", remaining.Round(time.Second)), nil)
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			WriteInternalError(w, "Login failed")
			return
		}
		// Unknown email still burns an attempt so enumeration costs the
		// same as a wrong password.
		h.recordLoginFailure(r, email, ip)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	match, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		h.recordLoginFailure(r, email, ip)
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			_ = h.queries.UpdateUserPassword(r.Context(), user.ID, newHash)
		}
	}

	if err := h.sessions.RenewToken(r.Context()); err != nil {
		WriteInternalError(w, "Failed to create session")
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	if h.login != nil {
		h.login.RecordSuccessfulLogin(email)
	}
	_ = h.queries.UpdateUserLastLogin(r.Context(), user.ID)

	h.events.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"login: "+user.Email, &user.ID, ip, h.loginMetadata(r, ip))

	WriteSuccess(w, h.userToResponse(user), nil)
}

// recordLoginFailure registers a failed attempt and writes the audit entry.
func (h *Handler) recordLoginFailure(r *http.Request, email, ip string) {
	message := "failed login: " + email
	if h.login != nil {
		if locked, duration := h.login.RecordFailedAttempt(email); locked {
			message = fmt.Sprintf("account locked for %s after repeated failures: %s",
				duration.Round(time.Second), email)
		}
	}
	h.events.LogAuthEvent(r.Context(), model.EventLevelWarning, message, nil, ip, h.loginMetadata(r, ip))
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	if err := h.sessions.Destroy(r.Context()); err != nil {
		WriteInternalError(w, "Failed to destroy session")
		return
	}

	if userID > 0 {
		h.events.LogAuthEvent(r.Context(), model.EventLevelInfo,
			"logout", &userID, middleware.GetClientIP(r), nil)
	}

	WriteSuccess(w, map[string]string{"message": "Logged out"}, nil)
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, h.userToResponse(*user), nil)
}
