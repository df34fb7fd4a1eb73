package tui_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aretw0/flowstudio/internal/presentation/tui"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestConsolePrinter_PlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	p := tui.NewConsolePrinter(&buf, false)

	p.Line(domain.ConsoleLine{Kind: domain.ConsoleInfo, Text: "[a] started"})
	p.Line(domain.ConsoleLine{Kind: domain.ConsoleError, Text: "boom"})
	p.Notification(domain.Notification{Level: domain.NotifyError, Message: "Execution failed", Err: errors.New("timeout")})

	assert.Equal(t, "[a] started\nboom\n✖ Execution failed: timeout\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "__ _")
}
