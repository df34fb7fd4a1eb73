package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrap = 100

// NewRenderer returns a function that renders markdown using glamour.
// Output is wrapped to the terminal width; without a terminal the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	wrap := defaultWrap
	if width, _, err := term.GetSize(fd); err == nil && width > 20 && width < wrap {
		wrap = width - 2
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
