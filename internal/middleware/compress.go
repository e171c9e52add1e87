// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// gzipResponseWriter wraps http.ResponseWriter to provide gzip compression.
type gzipResponseWriter struct {
	http.ResponseWriter
	gzipWriter *gzip.Writer
}

func (g *gzipResponseWriter) Write(b []byte) (int, error) {
	return g.gzipWriter.Write(b)
}

// gzipWriterPool pools gzip.Writer instances to reduce allocations.
var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// compressibleContentTypes lists content types that should be compressed.
// Uploaded images and other binary responses are already compressed.
var compressibleContentTypes = []string{
	"application/json",
	"text/html",
	"text/css",
	"text/plain",
	"application/xml",
	"text/xml",
}

// CompressSelective is a middleware that only compresses responses with
// compressible content types above a minimum size.
func CompressSelective(level int, minSize int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip if client doesn't accept gzip
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			sw := &selectiveWriter{
				ResponseWriter: w,
				level:          level,
				minSize:        minSize,
			}

			next.ServeHTTP(sw, r)

			sw.Flush()
		})
	}
}

// selectiveWriter buffers responses and only compresses if appropriate.
type selectiveWriter struct {
	http.ResponseWriter
	level      int
	minSize    int
	buffer     []byte
	statusCode int
}

func (sw *selectiveWriter) WriteHeader(statusCode int) {
	sw.statusCode = statusCode
}

func (sw *selectiveWriter) Write(b []byte) (int, error) {
	sw.buffer = append(sw.buffer, b...)
	return len(b), nil
}

func (sw *selectiveWriter) Flush() {
	if len(sw.buffer) == 0 {
		if sw.statusCode != 0 {
			sw.ResponseWriter.WriteHeader(sw.statusCode)
		}
		return
	}

	contentType := sw.Header().Get("Content-Type")
	shouldCompress := len(sw.buffer) >= sw.minSize && isCompressible(contentType)

	if shouldCompress {
		sw.Header().Set("Content-Encoding", "gzip")
		sw.Header().Set("Vary", "Accept-Encoding")
		sw.Header().Del("Content-Length")
	}

	if sw.statusCode != 0 {
		sw.ResponseWriter.WriteHeader(sw.statusCode)
	}

	if shouldCompress {
		gz := gzipWriterPool.Get().(*gzip.Writer)
		gz.Reset(sw.ResponseWriter)
		_, _ = gz.Write(sw.buffer)
		_ = gz.Close()
		gzipWriterPool.Put(gz)
	} else {
		_, _ = sw.ResponseWriter.Write(sw.buffer)
	}
}

// isCompressible checks if the content type should be compressed.
func isCompressible(contentType string) bool {
	if contentType == "" {
		return false
	}

	// Extract the media type without parameters (e.g., charset)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	for _, ct := range compressibleContentTypes {
		if strings.EqualFold(contentType, ct) {
			return true
		}
	}

	if strings.HasPrefix(strings.ToLower(contentType), "text/") {
		return true
	}

	return false
}

// StaticCache adds Cache-Control headers for static file responses.
func StaticCache(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(maxAge))
			next.ServeHTTP(w, r)
		})
	}
}
