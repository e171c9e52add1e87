// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/inkwell-go/internal/handler"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/store"
)

// EventResponse represents an audit log entry in API responses.
type EventResponse struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	UserID    *int64         `json:"user_id,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func eventToResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		IPAddress: e.IPAddress,
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		resp.UserID = &e.UserID.Int64
	}
	if e.Metadata != "" && e.Metadata != "{}" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(e.Metadata), &metadata); err == nil {
			resp.Metadata = metadata
		}
	}
	return resp
}

// AdminListEvents handles GET /api/v1/events (admin) with an optional
// ?category= filter. Newest entries first.
func (h *Handler) AdminListEvents(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, handler.DefaultPerPage, handler.MaxPerPage)
	offset := (page - 1) * perPage

	events, err := h.queries.ListEvents(r.Context(), store.ListEventsParams{
		Category: category,
		Limit:    int64(perPage),
		Offset:   int64(offset),
	})
	if err != nil {
		WriteInternalError(w, "Failed to list events")
		return
	}

	total, err := h.queries.CountEvents(r.Context(), category)
	if err != nil {
		WriteInternalError(w, "Failed to count events")
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, eventToResponse(e))
	}

	WriteSuccess(w, responses, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.CalculateTotalPages(total, perPage),
	})
}
