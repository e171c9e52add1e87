// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/inkwell-go/internal/model"
)

func requestWithUser(user model.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ContextKeyUser, user)
	return req.WithContext(ctx)
}

func TestGetUser(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		user := GetUser(req)
		if user != nil {
			t.Errorf("GetUser() = %v, want nil", user)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := requestWithUser(model.User{
			ID:    123,
			Email: "test@example.com",
			Role:  model.RoleAdmin,
			Name:  "Test User",
		})

		user := GetUser(req)
		if user == nil {
			t.Fatal("GetUser() = nil, want user")
		}
		if user.ID != 123 {
			t.Errorf("GetUser().ID = %d, want 123", user.ID)
		}
		if user.Email != "test@example.com" {
			t.Errorf("GetUser().Email = %q, want %q", user.Email, "test@example.com")
		}
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id := GetUserID(req); id != 0 {
			t.Errorf("GetUserID() = %d, want 0", id)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := requestWithUser(model.User{ID: 456})
		if id := GetUserID(req); id != 456 {
			t.Errorf("GetUserID() = %d, want 456", id)
		}
	})
}

func TestGetUserIDPtr(t *testing.T) {
	t.Run("no user in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if idPtr := GetUserIDPtr(req); idPtr != nil {
			t.Errorf("GetUserIDPtr() = %v, want nil", idPtr)
		}
	})

	t.Run("user in context", func(t *testing.T) {
		req := requestWithUser(model.User{ID: 789})
		idPtr := GetUserIDPtr(req)
		if idPtr == nil {
			t.Fatal("GetUserIDPtr() = nil, want pointer")
		}
		if *idPtr != 789 {
			t.Errorf("*GetUserIDPtr() = %d, want 789", *idPtr)
		}
	})
}

func TestGetUserEmail(t *testing.T) {
	req := requestWithUser(model.User{Email: "reader@example.com"})
	if email := GetUserEmail(req); email != "reader@example.com" {
		t.Errorf("GetUserEmail() = %q, want reader@example.com", email)
	}

	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	if email := GetUserEmail(anon); email != "" {
		t.Errorf("GetUserEmail() = %q, want empty", email)
	}
}

func TestRoleLevel(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleAdmin, 2},
		{model.RoleCustomer, 1},
		{"", 0},
		{"superuser", 0},
	}
	for _, tt := range tests {
		if got := roleLevel(tt.role); got != tt.want {
			t.Errorf("roleLevel(%q) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		minRole    string
		user       *model.User
		wantStatus int
	}{
		{"admin passes admin gate", model.RoleAdmin, &model.User{ID: 1, Role: model.RoleAdmin}, http.StatusOK},
		{"customer blocked from admin gate", model.RoleAdmin, &model.User{ID: 2, Role: model.RoleCustomer}, http.StatusForbidden},
		{"admin passes customer gate", model.RoleCustomer, &model.User{ID: 1, Role: model.RoleAdmin}, http.StatusOK},
		{"customer passes customer gate", model.RoleCustomer, &model.User{ID: 2, Role: model.RoleCustomer}, http.StatusOK},
		{"anonymous gets 401", model.RoleCustomer, nil, http.StatusUnauthorized},
		{"unknown role blocked", model.RoleCustomer, &model.User{ID: 3, Role: "guest"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.minRole)(okHandler)

			var req *http.Request
			if tt.user != nil {
				req = requestWithUser(*tt.user)
			} else {
				req = httptest.NewRequest(http.MethodGet, "/", nil)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithUser(model.User{ID: 1, Role: model.RoleCustomer}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
