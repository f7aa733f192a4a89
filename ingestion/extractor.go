package ingestion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
)

// PlainTextExtractor handles text-based MIME types. Anything it cannot
// interpret fails the processing attempt rather than producing garbage
// passages.
type PlainTextExtractor struct{}

var _ storage.Extractor = (*PlainTextExtractor)(nil)

// NewPlainTextExtractor creates a PlainTextExtractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract returns the bytes as text for text/* MIME types (and a few
// text-shaped application types), rejecting invalid UTF-8.
func (e *PlainTextExtractor) Extract(mimeType string, data []byte) (string, error) {
	if !textMimeType(mimeType) {
		return "", fmt.Errorf("%w: unsupported mime type %q", core.ErrValidation, mimeType)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: content is not valid UTF-8", core.ErrValidation)
	}
	return string(data), nil
}

func textMimeType(mimeType string) bool {
	// Parameters like "; charset=utf-8" are irrelevant here
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))

	if mimeType == "" || strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}
