// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips dangerous markup from rendered pages. UGCPolicy
// allows safe formatting tags while removing scripts and event handlers.
var htmlSanitizer = bluemonday.UGCPolicy()

// RenderHTML converts one page of markdown to sanitized HTML.
func RenderHTML(page string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(page), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
