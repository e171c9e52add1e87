// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// MIME types accepted for uploads (payment proofs and cover images).
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// Upload kinds. The kind decides the destination subdirectory and whether
// a thumbnail variant is generated.
const (
	UploadKindProof  = "proof"
	UploadKindCover  = "cover"
	UploadKindAvatar = "avatar"
)

// IsValidUploadKind reports whether s names a known upload kind.
func IsValidUploadKind(s string) bool {
	switch s {
	case UploadKindProof, UploadKindCover, UploadKindAvatar:
		return true
	}
	return false
}

// ImageVariantConfig describes one derived image size.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool
}

// ImageVariants are the derived sizes generated for uploaded images.
var ImageVariants = map[string]ImageVariantConfig{
	"thumbnail": {Width: 300, Height: 300, Quality: 80, Crop: true},
	"preview":   {Width: 800, Height: 1200, Quality: 85, Crop: false},
}

// IsImageMimeType returns true for MIME types the upload pipeline accepts.
func IsImageMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}
