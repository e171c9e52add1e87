// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/inkwell-go/internal/model"
)

// memFile adapts a bytes.Reader into a multipart.File.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func makeUpload(t *testing.T, filename, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	header := &multipart.FileHeader{
		Filename: filename,
		Size:     int64(len(data)),
		Header:   textproto.MIMEHeader{},
	}
	if contentType != "" {
		header.Header.Set("Content-Type", contentType)
	}
	return memFile{bytes.NewReader(data)}, header
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestUploadProof(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(dir, 0)

	data := testJPEG(t, 200, 150)
	file, header := makeUpload(t, "receipt.jpg", model.MimeTypeJPEG, data)

	result, err := svc.Upload(file, header, model.UploadKindProof)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if !strings.HasPrefix(result.Path, model.UploadKindProof+"/") {
		t.Errorf("Path = %q, want prefix %q", result.Path, model.UploadKindProof+"/")
	}
	if !strings.HasSuffix(result.Path, "/receipt.jpg") {
		t.Errorf("Path = %q, want suffix /receipt.jpg", result.Path)
	}
	if result.Width != 200 || result.Height != 150 {
		t.Errorf("dimensions = %dx%d, want 200x150", result.Width, result.Height)
	}
	if len(result.Variants) != 0 {
		t.Errorf("proof upload created %d variants, want 0", len(result.Variants))
	}

	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(result.Path))); err != nil {
		t.Errorf("stored file not found: %v", err)
	}
}

func TestUploadCoverCreatesVariants(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(dir, 0)

	data := testJPEG(t, 1600, 2400)
	file, header := makeUpload(t, "cover.jpg", model.MimeTypeJPEG, data)

	result, err := svc.Upload(file, header, model.UploadKindCover)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(result.Variants) != len(model.ImageVariants) {
		t.Errorf("got %d variants, want %d", len(result.Variants), len(model.ImageVariants))
	}
}

func TestUploadRejectsInvalidKind(t *testing.T) {
	svc := NewMediaService(t.TempDir(), 0)
	file, header := makeUpload(t, "x.jpg", model.MimeTypeJPEG, testJPEG(t, 10, 10))

	if _, err := svc.Upload(file, header, "banner"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("Upload() error = %v, want ErrInvalidKind", err)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc := NewMediaService(t.TempDir(), 100)
	data := testJPEG(t, 100, 100)
	file, header := makeUpload(t, "big.jpg", model.MimeTypeJPEG, data)

	if _, err := svc.Upload(file, header, model.UploadKindProof); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Upload() error = %v, want ErrFileTooLarge", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewMediaService(t.TempDir(), 0)
	file, header := makeUpload(t, "doc.pdf", "application/pdf", []byte("%PDF-1.4"))

	if _, err := svc.Upload(file, header, model.UploadKindProof); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Upload() error = %v, want ErrUnsupportedType", err)
	}
}

func TestUploadDetectsTypeFromExtension(t *testing.T) {
	svc := NewMediaService(t.TempDir(), 0)
	file, header := makeUpload(t, "photo.jpg", "", testJPEG(t, 20, 20))

	result, err := svc.Upload(file, header, model.UploadKindAvatar)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if result.MimeType != model.MimeTypeJPEG {
		t.Errorf("MimeType = %q, want %q", result.MimeType, model.MimeTypeJPEG)
	}
}

func TestDeleteUpload(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(dir, 0)

	file, header := makeUpload(t, "gone.jpg", model.MimeTypeJPEG, testJPEG(t, 30, 30))
	result, err := svc.Upload(file, header, model.UploadKindProof)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := svc.Delete(result.Path); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(result.Path))); !os.IsNotExist(err) {
		t.Errorf("file still present after Delete: %v", err)
	}

	if err := svc.Delete("not-a-valid-path"); err == nil {
		t.Error("Delete() expected error for malformed path")
	}
}

func TestMediaURL(t *testing.T) {
	svc := NewMediaService(t.TempDir(), 0)

	tests := []struct {
		name    string
		path    string
		variant string
		want    string
	}{
		{"original", "cover/abc/cover.jpg", "", "/uploads/cover/abc/cover.jpg"},
		{"explicit original", "cover/abc/cover.jpg", "original", "/uploads/cover/abc/cover.jpg"},
		{"thumbnail", "cover/abc/cover.jpg", "thumbnail", "/uploads/cover/abc/thumbnail/cover.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.URL(tt.path, tt.variant); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.jpg", model.MimeTypeJPEG},
		{"a.JPEG", model.MimeTypeJPEG},
		{"a.png", model.MimeTypePNG},
		{"a.gif", model.MimeTypeGIF},
		{"a.webp", model.MimeTypeWebP},
		{"a.exe", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := getMimeTypeFromExtension(tt.filename); got != tt.want {
			t.Errorf("getMimeTypeFromExtension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
