package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/microcosm-cc/bluemonday"
)

type ContentExtractor struct {
	policy *bluemonday.Policy
}

// NewContentExtractor strips scripts, frames and inline handlers before
// extraction but keeps class and id attributes, which readability scores on.
func NewContentExtractor() *ContentExtractor {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id").Globally()
	policy.AllowElements("article", "main", "section", "header", "footer", "nav", "aside")
	return &ContentExtractor{policy: policy}
}

// Run extracts the readable body of an HTML page as plain text.
func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	sanitized := e.policy.SanitizeBytes(data)

	article, err := readability.FromReader(bytes.NewReader(sanitized), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return "", fmt.Errorf("failed to render content: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully", "content_length", len(text))

	return text, nil
}
