// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/inkwell-go/internal/middleware"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/service"
)

// UploadResponse describes a stored upload.
type UploadResponse struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Upload handles POST /api/v1/uploads. Multipart form with a "file" part and
// a "kind" field (proof, cover, or avatar). Covers are admin-only since
// they go into the catalog; proofs and avatars belong to the caller.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxBytes())
	if err := r.ParseMultipartForm(h.media.MaxBytes()); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				"Upload exceeds the size limit", nil)
			return
		}
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}

	kind := r.FormValue("kind")
	if !model.IsValidUploadKind(kind) {
		WriteValidationError(w, map[string]string{"kind": "Must be proof, cover, or avatar"})
		return
	}
	if kind == model.UploadKindCover && !user.IsAdmin() {
		WriteForbidden(w, "Only admins can upload covers")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "Missing file part", nil)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.media.Upload(file, header, kind)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				"Upload exceeds the size limit", nil)
		case errors.Is(err, service.ErrUnsupportedType):
			WriteValidationError(w, map[string]string{"file": "Unsupported file type"})
		case errors.Is(err, service.ErrInvalidKind):
			WriteValidationError(w, map[string]string{"kind": "Unknown upload kind"})
		default:
			WriteInternalError(w, "Failed to store upload")
		}
		return
	}

	h.events.LogUserEvent(r.Context(), model.EventLevelInfo, "upload stored: "+kind,
		&user.ID, middleware.GetClientIP(r),
		map[string]any{"path": result.Path, "size": result.Size})

	WriteCreated(w, UploadResponse{
		Path:     result.Path,
		URL:      h.media.URL(result.Path, ""),
		MimeType: result.MimeType,
		Size:     result.Size,
		Width:    result.Width,
		Height:   result.Height,
	})
}
