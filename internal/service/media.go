// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/inkwell-go/internal/imaging"
	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/util"
)

// Upload defaults
const (
	DefaultMaxUploadBytes = 10 * 1024 * 1024 // 10MB
	DefaultUploadDir      = "./uploads"
)

// Upload validation errors, distinguished so handlers can map them to
// the right response codes.
var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrInvalidKind     = errors.New("unknown upload kind")
)

// AllowedMimeTypes defines the MIME types that can be uploaded. Payment
// proofs, covers, and avatars are all images.
var AllowedMimeTypes = map[string]bool{
	model.MimeTypeJPEG: true,
	model.MimeTypePNG:  true,
	model.MimeTypeGIF:  true,
	model.MimeTypeWebP: true,
}

// UploadResult describes a stored upload. Path is relative to the
// uploads directory and is what gets persisted on orders, books, and
// user profiles.
type UploadResult struct {
	Path     string
	MimeType string
	Size     int64
	Width    int
	Height   int
	Variants []*imaging.VariantResult
}

// MediaService handles upload processing and storage.
type MediaService struct {
	processor *imaging.Processor
	uploadDir string
	maxBytes  int64
}

// NewMediaService creates a new media service.
func NewMediaService(uploadDir string, maxBytes int64) *MediaService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaService{
		processor: imaging.NewProcessor(uploadDir),
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
	}
}

// MaxBytes returns the configured upload size limit.
func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates and stores one uploaded image under the given kind.
// The returned Path is relative, e.g. "proof/<uuid>/<filename>".
func (s *MediaService) Upload(file multipart.File, header *multipart.FileHeader, kind string) (*UploadResult, error) {
	if !model.IsValidUploadKind(kind) {
		return nil, ErrInvalidKind
	}
	if header.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = getMimeTypeFromExtension(header.Filename)
	}
	if !AllowedMimeTypes[mimeType] {
		return nil, ErrUnsupportedType
	}

	fileUUID := uuid.New().String()
	filename, err := util.SanitizeFilename(header.Filename)
	if err != nil {
		return nil, fmt.Errorf("invalid filename: %w", err)
	}
	if filepath.Ext(filename) == "" {
		filename += extensionForMimeType(mimeType)
	}

	processResult, err := s.processor.ProcessImage(file, kind, fileUUID, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	result := &UploadResult{
		Path:     filepath.ToSlash(filepath.Join(kind, fileUUID, filename)),
		MimeType: processResult.MimeType,
		Size:     processResult.Size,
		Width:    processResult.Width,
		Height:   processResult.Height,
	}

	// Derived sizes are for covers and avatars; payment proofs are only
	// viewed at full size by the admin.
	if kind != model.UploadKindProof {
		variants, err := s.processor.CreateAllVariants(processResult.FilePath, kind, fileUUID, filename)
		if err != nil {
			_ = s.processor.DeleteUploadFiles(kind, fileUUID)
			return nil, fmt.Errorf("failed to create variants: %w", err)
		}
		result.Variants = variants
	}

	return result, nil
}

// Delete removes the stored files for a previously uploaded path.
func (s *MediaService) Delete(relPath string) error {
	kind, fileUUID, ok := splitUploadPath(relPath)
	if !ok {
		return fmt.Errorf("malformed upload path %q", relPath)
	}
	return s.processor.DeleteUploadFiles(kind, fileUUID)
}

// URL returns the public URL path for a stored upload, optionally for a
// named variant.
func (s *MediaService) URL(relPath, variant string) string {
	if variant == "" || variant == "original" {
		return "/uploads/" + relPath
	}
	kind, fileUUID, ok := splitUploadPath(relPath)
	if !ok {
		return "/uploads/" + relPath
	}
	return fmt.Sprintf("/uploads/%s/%s/%s/%s", kind, fileUUID, variant, filepath.Base(relPath))
}

// splitUploadPath parses "kind/uuid/filename" into its components.
func splitUploadPath(relPath string) (kind, fileUUID string, ok bool) {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	if len(parts) != 3 || !model.IsValidUploadKind(parts[0]) || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func getMimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return model.MimeTypeJPEG
	case ".png":
		return model.MimeTypePNG
	case ".gif":
		return model.MimeTypeGIF
	case ".webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}

func extensionForMimeType(mimeType string) string {
	switch mimeType {
	case model.MimeTypeJPEG:
		return ".jpg"
	case model.MimeTypePNG:
		return ".png"
	case model.MimeTypeGIF:
		return ".gif"
	case model.MimeTypeWebP:
		return ".webp"
	default:
		return ".bin"
	}
}
