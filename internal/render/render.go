// Package render implements the widget's display rules: user content
// verbatim, assistant content as formatted markdown, and the sources block
// with relevance percentages and truncated excerpts.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"docs-chat/internal/chat"
)

const excerptLimit = 150

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// AssistantHTML converts assistant message content to HTML for embedding
// hosts.
func AssistantHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.Trim(buf.String(), " \t\n\r"), nil
}

// Score formats a relevance score for display. Scores are expected in
// [0,1] but out-of-range values pass through unclamped.
func Score(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// Excerpt truncates a source excerpt to 150 characters with an ellipsis
// marker; shorter text is returned verbatim.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

// SourceLine formats one source with its 1-based index.
func SourceLine(idx int, s chat.Source) string {
	return fmt.Sprintf("Source %d (Relevance: %s)\n%s", idx+1, Score(s.Score), Excerpt(s.Text))
}

// WriteMessage writes one conversation turn as plain text, the shape the
// CLI shows. User content is verbatim; assistant content is followed by
// its sources block when present.
func WriteMessage(w io.Writer, m chat.Message) error {
	switch m.Role {
	case chat.RoleUser:
		_, err := fmt.Fprintf(w, "You: %s\n", m.Content)
		return err
	case chat.RoleAssistant:
		if _, err := fmt.Fprintf(w, "Assistant: %s\n", m.Content); err != nil {
			return err
		}
		if len(m.Sources) > 0 {
			if _, err := fmt.Fprintln(w, "Sources:"); err != nil {
				return err
			}
			for i, s := range m.Sources {
				if _, err := fmt.Fprintf(w, "%s\n", SourceLine(i, s)); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown message role: %s", m.Role)
	}
}
