// Package markdown renders diary entry bodies to HTML safe for embedding.
// Rendering and sanitization are separate steps: goldmark produces the
// HTML, bluemonday strips anything the UGC policy does not allow.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	renderer = goldmark.New(
		goldmark.WithExtensions(extension.Typographer),
	)
	policy = bluemonday.UGCPolicy()
)

// Render converts a markdown entry body to sanitized HTML.
func Render(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: render: %w", err)
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}
