// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"fmt"
	"os"

	"github.com/olegiv/inkwell-go/internal/model"
	"github.com/olegiv/inkwell-go/internal/util"
)

// Source resolves the full body of a book, whether stored inline or in a
// file under the content directory.
type Source struct {
	contentDir string
}

// NewSource creates a Source reading file-backed bodies from contentDir.
func NewSource(contentDir string) *Source {
	return &Source{contentDir: contentDir}
}

// Body returns the book's full text. Inline bodies win; otherwise the
// content file is read from disk. File names are confined to the content
// directory.
func (s *Source) Body(book *model.Book) (string, error) {
	if book.HasInlineBody() {
		return book.Body, nil
	}

	if !book.ContentFile.Valid || book.ContentFile.String == "" {
		return "", nil
	}

	name, err := util.SanitizeFilename(book.ContentFile.String)
	if err != nil {
		return "", fmt.Errorf("content file for book %d: %w", book.ID, err)
	}

	path, err := util.SafeJoinPath(s.contentDir, name)
	if err != nil {
		return "", fmt.Errorf("content file for book %d: %w", book.ID, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading content file for book %d: %w", book.ID, err)
	}

	return string(data), nil
}

// Pages returns the book's body split into reader pages.
func (s *Source) Pages(book *model.Book) ([]string, error) {
	body, err := s.Body(book)
	if err != nil {
		return nil, err
	}
	return SplitPages(body), nil
}
