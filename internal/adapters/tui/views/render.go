package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"bonsai/internal/adapters/tui/styles"
	"bonsai/internal/domain"
)

// RenderKeyHelp formats a key binding as help text (key + description)
func RenderKeyHelp(b key.Binding) string {
	help := b.Help()
	return fmt.Sprintf("%s %s",
		styles.HelpKey.Render(help.Key),
		styles.HelpDesc.Render(help.Desc),
	)
}

// RenderHelpLine renders multiple key bindings as a help line separated by bullets
func RenderHelpLine(bindings ...key.Binding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, RenderKeyHelp(b))
	}
	return strings.Join(parts, styles.HelpSeparator.String())
}

// RenderMessage renders a message with appropriate styling based on isError
func RenderMessage(message string, isError bool) string {
	if message == "" {
		return ""
	}
	if isError {
		return styles.ErrorMsg.Render(message)
	}
	return styles.Success.Render(message)
}

// FitURL shortens url to width cells, keeping the start
func FitURL(url string, width int) string {
	if width <= 1 {
		return url
	}
	return truncate.StringWithTail(url, uint(width), "…")
}

// WrapURL hard-wraps url over lines of at most width cells
func WrapURL(url string, width int) string {
	if width <= 0 {
		return url
	}
	return wrap.String(url, width)
}

// WrapText word-wraps prose to width cells
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// RenderViewports renders viewport tags, highlighting the active one
func RenderViewports(viewports []domain.ViewportID, active domain.ViewportID) string {
	if len(viewports) == 0 {
		return ""
	}
	parts := make([]string, 0, len(viewports))
	for _, v := range viewports {
		if v == active {
			parts = append(parts, styles.ViewportActive.Render(string(v)))
		} else {
			parts = append(parts, styles.ViewportTag.Render(string(v)))
		}
	}
	return strings.Join(parts, " ")
}

// viewportsOf extracts the viewport ids of head entries
func viewportsOf(entries []domain.HeadEntry) []domain.ViewportID {
	out := make([]domain.ViewportID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Viewport)
	}
	return out
}
