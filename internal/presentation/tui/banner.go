package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowstudio banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	// Indigo to pink, matching the default edge stroke.
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                   _             _ _       ", "#818cf8"},
		{"  / _| | _____      _____| |_ _   _  __| (_) ___  ", "#a78bfa"},
		{" | |_| |/ _ \\ \\ /\\ / / __| __| | | |/ _` | |/ _ \\ ", "#c084fc"},
		{" |  _| | (_) \\ V  V /\\__ \\ |_| |_| | (_| | | (_) |", "#e879f9"},
		{" |_| |_|\\___/ \\_/\\_/ |___/\\__|\\__,_|\\__,_|_|\\___/ ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
