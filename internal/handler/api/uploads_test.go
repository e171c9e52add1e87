// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/inkwell-go/internal/model"
)

// newUploadRequest builds a multipart request with a small JPEG file part
// and a kind field.
func newUploadRequest(t *testing.T, kind string) *http.Request {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var imgBuf bytes.Buffer
	if err := jpeg.Encode(&imgBuf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("kind", kind); err != nil {
		t.Fatalf("failed to write kind field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "receipt.jpg")
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := fw.Write(imgBuf.Bytes()); err != nil {
		t.Fatalf("failed to write file part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadProof(t *testing.T) {
	db, h := testSetup(t)
	user := createTestUser(t, db, "buyer@example.com", model.RoleCustomer)

	req := requestWithUser(newUploadRequest(t, model.UploadKindProof), user)
	w := executeHandler(t, h.Upload, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	got := unmarshalData[UploadResponse](t, w)
	if !strings.HasPrefix(got.Path, "proof/") {
		t.Errorf("expected proof path, got %q", got.Path)
	}
	if !strings.HasPrefix(got.URL, "/uploads/proof/") {
		t.Errorf("expected upload URL, got %q", got.URL)
	}
	if got.Width != 40 || got.Height != 40 {
		t.Errorf("expected 40x40 dimensions, got %dx%d", got.Width, got.Height)
	}
}

func TestUploadCoverRequiresAdmin(t *testing.T) {
	db, h := testSetup(t)
	user := createTestUser(t, db, "buyer@example.com", model.RoleCustomer)

	req := requestWithUser(newUploadRequest(t, model.UploadKindCover), user)
	w := executeHandler(t, h.Upload, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}

func TestUploadCoverAsAdmin(t *testing.T) {
	db, h := testSetup(t)
	admin := createTestUser(t, db, "admin@example.com", model.RoleAdmin)

	req := requestWithUser(newUploadRequest(t, model.UploadKindCover), admin)
	w := executeHandler(t, h.Upload, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadInvalidKind(t *testing.T) {
	db, h := testSetup(t)
	user := createTestUser(t, db, "buyer@example.com", model.RoleCustomer)

	req := requestWithUser(newUploadRequest(t, "banner"), user)
	w := executeHandler(t, h.Upload, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", w.Code)
	}
}

func TestUploadUnauthenticated(t *testing.T) {
	_, h := testSetup(t)

	w := executeHandler(t, h.Upload, newUploadRequest(t, model.UploadKindProof))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	db, h := testSetup(t)
	user := createTestUser(t, db, "buyer@example.com", model.RoleCustomer)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("kind", model.UploadKindProof)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = requestWithUser(req, user)

	w := executeHandler(t, h.Upload, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
