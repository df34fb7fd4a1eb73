package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/muesli/termenv"
)

// ConsolePrinter writes console lines and notifications with colors by kind.
// Color is dropped automatically when w is not a terminal.
type ConsolePrinter struct {
	out        *termenv.Output
	timestamps bool
}

// NewConsolePrinter creates a printer writing to w.
func NewConsolePrinter(w io.Writer, timestamps bool) *ConsolePrinter {
	return &ConsolePrinter{
		out:        termenv.NewOutput(w),
		timestamps: timestamps,
	}
}

// Line prints one console line.
func (p *ConsolePrinter) Line(l domain.ConsoleLine) {
	var prefix string
	if p.timestamps {
		prefix = time.UnixMilli(l.Timestamp).Format("15:04:05.000") + " "
	}

	text := p.out.String(l.Text)
	switch l.Kind {
	case domain.ConsoleError:
		text = text.Foreground(p.out.Color("#ef4444"))
	case domain.ConsoleChunk:
		text = text.Foreground(p.out.Color("#a78bfa")).Italic()
	default:
		text = text.Foreground(p.out.Color("#9ca3af"))
	}
	fmt.Fprintf(p.out, "%s%s\n", p.out.String(prefix).Faint(), text)
}

// Notification prints a notification as a one-line toast.
func (p *ConsolePrinter) Notification(n domain.Notification) {
	icon, color := "•", "#9ca3af"
	switch n.Level {
	case domain.NotifySuccess:
		icon, color = "✔", "#22c55e"
	case domain.NotifyError:
		icon, color = "✖", "#ef4444"
	case domain.NotifyWarning:
		icon, color = "!", "#f59e0b"
	}
	msg := n.Message
	if n.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, n.Err)
	}
	fmt.Fprintln(p.out, p.out.String(icon+" "+msg).Foreground(p.out.Color(color)).Bold())
}
