// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content handles book body storage, pagination, and rendering.
// A book body is a single markdown document; horizontal-rule lines split
// it into reader pages.
package content

import (
	"regexp"
	"strings"
)

// PageDelimiter is the canonical separator written between pages when a
// body is reassembled from its pages.
const PageDelimiter = "\n\n---\n\n"

// pageSplitRegex matches a page-break line: three or more hyphens on their
// own line, with the surrounding blank lines absorbed. Splitting the
// canonical form and joining with PageDelimiter round-trips.
var pageSplitRegex = regexp.MustCompile(`\n{1,2}-{3,}\n{1,2}`)

// SplitPages splits a book body into reader pages. A body with no
// delimiters is a single page. Page text keeps its internal whitespace;
// only the delimiter lines are consumed.
func SplitPages(body string) []string {
	return pageSplitRegex.Split(body, -1)
}

// JoinPages reassembles a body from its pages using the canonical delimiter.
func JoinPages(pages []string) string {
	return strings.Join(pages, PageDelimiter)
}

// PageCount returns the number of reader pages in a body.
func PageCount(body string) int {
	return len(SplitPages(body))
}
