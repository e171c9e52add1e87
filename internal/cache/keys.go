package cache

import "strconv"

// Cache key builders. Keys are namespaced per concern so invalidation can
// target one user or one book without flushing everything else.

// PurchasesKey is the cache key for a user's granted book IDs.
func PurchasesKey(userID int64) string {
	return "purchases:" + strconv.FormatInt(userID, 10)
}

// BookPagesKey is the cache key for a book's paginated content.
func BookPagesKey(bookID int64) string {
	return "book:" + strconv.FormatInt(bookID, 10) + ":pages"
}

// BookHTMLKey is the cache key for one rendered page of a book.
func BookHTMLKey(bookID, page int64) string {
	return "book:" + strconv.FormatInt(bookID, 10) + ":html:" + strconv.FormatInt(page, 10)
}

// BookPrefix is the invalidation prefix covering all cached state of a book.
func BookPrefix(bookID int64) string {
	return "book:" + strconv.FormatInt(bookID, 10) + ":"
}
