// ABOUTME: Comment rendering and tag stripping for node text fields
// ABOUTME: Comments use a restricted Markdown subset; names are reduced to plain text

package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// Raw HTML in the source is dropped by goldmark unless WithUnsafe is set.
var comments = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

// RenderComment converts a node comment to HTML. Embedded HTML and
// javascript: links are not passed through.
func RenderComment(src string) (string, error) {
	var buf bytes.Buffer
	if err := comments.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering comment: %w", err)
	}
	return buf.String(), nil
}

// StripTags returns the text content of s with every tag removed and
// entities decoded. Surrounding whitespace is trimmed.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read so far.
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
