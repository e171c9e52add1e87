// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded images: payment proofs, book covers,
// and avatars. Images are decoded, auto-rotated per EXIF orientation, and
// re-encoded without metadata before being written to disk.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/inkwell-go/internal/model"
)

// imageFormat is the normalized output format of the pipeline.
type imageFormat string

const (
	formatJPEG imageFormat = "jpeg"
	formatPNG  imageFormat = "png"
	formatGIF  imageFormat = "gif"
	formatWebP imageFormat = "webp"
)

// mimeType maps the format to its MIME type constant.
func (f imageFormat) mimeType() string {
	switch f {
	case formatJPEG:
		return model.MimeTypeJPEG
	case formatPNG:
		return model.MimeTypePNG
	case formatGIF:
		return model.MimeTypeGIF
	case formatWebP:
		return model.MimeTypeWebP
	}
	return "application/octet-stream"
}

// encode renders img in this format. WebP has no pure Go encoder, so
// WebP input is written back as JPEG.
func (f imageFormat) encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case formatPNG:
		err = png.Encode(&buf, img)
	case formatGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sniffFormat detects the image format from raw bytes. TIFF is rejected
// outright (CVE-2023-36308 in disintegration/imaging).
func sniffFormat(data []byte) (imageFormat, bool) {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return "", false
	case strings.Contains(contentType, "jpeg"):
		return formatJPEG, true
	case strings.Contains(contentType, "png"):
		return formatPNG, true
	case strings.Contains(contentType, "gif"):
		return formatGIF, true
	case strings.Contains(contentType, "webp"):
		return formatWebP, true
	}
	return "", false
}

// formatForFilename picks the variant output format from the filename
// extension, defaulting to JPEG.
func formatForFilename(filename string) imageFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return formatPNG
	case ".gif":
		return formatGIF
	case ".webp":
		return formatWebP
	default:
		return formatJPEG
	}
}

// ProcessResult describes a stored original image.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	Size     int64
	FilePath string
}

// VariantResult describes one stored derived size.
type VariantResult struct {
	Type     string
	Width    int
	Height   int
	Size     int64
	FilePath string
}

// Processor normalizes and stores uploaded images under a root directory.
type Processor struct {
	uploadDir string
}

// NewProcessor creates an image processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{uploadDir: uploadDir}
}

// ProcessImage reads an uploaded image, normalizes it, and saves it under
// kind/uuid/filename. Re-encoding strips EXIF metadata from the output.
func (p *Processor) ProcessImage(reader io.Reader, kind, uuid, filename string) (*ProcessResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	format, ok := sniffFormat(data)
	if !ok {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = normalizeOrientation(img, bytes.NewReader(data))

	encoded, err := format.encode(img, 95)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	filePath, err := p.store(filepath.Join(kind, uuid), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	bounds := img.Bounds()
	return &ProcessResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: format.mimeType(),
		Size:     int64(len(encoded)),
		FilePath: filePath,
	}, nil
}

// CreateVariant creates one resized variant of a stored image. Returns
// nil when the source is already smaller than the target and no crop is
// requested.
func (p *Processor) CreateVariant(sourcePath, kind, uuid, filename string, config model.ImageVariantConfig, variantType string) (*VariantResult, error) {
	img, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= config.Width && bounds.Dy() <= config.Height && !config.Crop {
		return nil, nil
	}

	var resized image.Image
	if config.Crop {
		resized = imaging.Fill(img, config.Width, config.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(img, config.Width, config.Height, imaging.Lanczos)
	}

	encoded, err := formatForFilename(filename).encode(resized, config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variant: %w", err)
	}

	variantPath, err := p.store(filepath.Join(kind, uuid, variantType), filename, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s variant: %w", variantType, err)
	}

	resBounds := resized.Bounds()
	return &VariantResult{
		Type:     variantType,
		Width:    resBounds.Dx(),
		Height:   resBounds.Dy(),
		Size:     int64(len(encoded)),
		FilePath: variantPath,
	}, nil
}

// CreateAllVariants creates every configured variant for an image. It
// keeps going when individual variants fail, returning whatever
// succeeded.
func (p *Processor) CreateAllVariants(sourcePath, kind, uuid, filename string) ([]*VariantResult, error) {
	var results []*VariantResult
	var errs []string

	for variantType, config := range model.ImageVariants {
		result, err := p.CreateVariant(sourcePath, kind, uuid, filename, config, variantType)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", variantType, err))
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}

	if len(errs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all variants failed: %s", strings.Join(errs, "; "))
	}
	return results, nil
}

// GetImageDimensions returns the pixel dimensions of an image file.
func (p *Processor) GetImageDimensions(path string) (width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image config: %w", err)
	}
	return config.Width, config.Height, nil
}

// DeleteUploadFiles removes all files stored for one upload.
func (p *Processor) DeleteUploadFiles(kind, uuid string) error {
	dir := filepath.Join(p.uploadDir, kind, uuid)
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload files: %w", err)
	}
	return nil
}

// normalizeOrientation rotates img upright per the EXIF orientation tag
// read from r. Images without a readable tag pass through unchanged.
func normalizeOrientation(img image.Image, r io.Reader) image.Image {
	x, err := exif.Decode(r)
	if err != nil {
		return img
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}
	return applyOrientation(img, orientation)
}

// applyOrientation maps the eight EXIF orientations onto flips and
// rotations. Unknown values pass through.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// store writes data to uploadDir/subDir/filename, creating directories
// as needed. The filename is sanitized and the target is validated to
// stay within the upload directory.
func (p *Processor) store(subDir, filename string, data []byte) (string, error) {
	safeFilename := filepath.Base(filename)
	if safeFilename == "." || safeFilename == ".." || safeFilename == "" {
		return "", fmt.Errorf("invalid filename")
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.Contains(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absBase, err := filepath.Abs(p.uploadDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absTarget := filepath.Join(absBase, cleanSubDir)

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.MkdirAll(absTarget, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filePath := filepath.Join(absTarget, safeFilename)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filePath, nil
}
