package tui

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// PrettyJSON indents a JSON document. Anything else is returned unchanged.
func PrettyJSON(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || !json.Valid([]byte(trimmed)) {
		return input, false
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return input, false
	}
	return buf.String(), true
}

// HighlightJSON pretty prints and syntax highlights a JSON document for a
// terminal of the given width. Input that is not JSON is returned unchanged.
func HighlightJSON(input string, width int) string {
	pretty, ok := PrettyJSON(input)
	if !ok {
		return input
	}

	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return pretty
	}

	out, err := renderer.Render("```json\n" + pretty + "\n```")
	if err != nil {
		return pretty
	}
	return strings.Trim(out, "\n")
}
