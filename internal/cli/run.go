package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/internal/presentation/graph"
	"github.com/aretw0/flowstudio/internal/presentation/tui"
	"github.com/aretw0/flowstudio/pkg/execution"
)

// RunOptions configures RunFlow.
type RunOptions struct {
	Input      map[string]any
	File       string // uploaded as the assistant's flow before running
	Out        io.Writer
	Timestamps bool
	Mermaid    bool // print the graph with the run overlay once finished
}

// RunFlow executes the assistant's flow and streams its console to opts.Out.
// Cancelling ctx cancels the run. The final controller state is returned.
func RunFlow(ctx context.Context, sess *flowstudio.Session, opts RunOptions) (execution.State, error) {
	if opts.File != "" {
		if err := sess.ImportFile(opts.File); err != nil {
			return execution.Idle, err
		}
		if err := sess.Save(ctx); err != nil {
			return execution.Idle, err
		}
	} else if err := sess.Open(ctx); err != nil {
		return execution.Idle, err
	}

	printer := tui.NewConsolePrinter(opts.Out, opts.Timestamps)
	printed := 0
	flushConsole := func() {
		lines := sess.Store.Console()
		if printed > len(lines) {
			printed = len(lines)
		}
		for ; printed < len(lines); printed++ {
			printer.Line(lines[printed])
		}
	}

	ctrl := sess.NewRun()
	if err := ctrl.Connect(ctx); err != nil {
		flushConsole()
		return ctrl.State(), err
	}
	if err := ctrl.Start(ctx, opts.Input); err != nil {
		_ = ctrl.Cancel()
		flushConsole()
		return ctrl.State(), err
	}

	done := ctrl.Done()
	cancelled := false
	for finished := false; !finished; {
		select {
		case e := <-ctrl.Events():
			handleEvent(e, printer, flushConsole)
		case <-ctx.Done():
			if !cancelled {
				cancelled = true
				_ = ctrl.Cancel()
			}
		case <-done:
			finished = true
		}
	}
	for drained := false; !drained; {
		select {
		case e := <-ctrl.Events():
			handleEvent(e, printer, flushConsole)
		default:
			drained = true
		}
	}
	flushConsole()

	if opts.Mermaid {
		overlay := graph.OverlayFromConsole(sess.Store.Console())
		fmt.Fprint(opts.Out, graph.GenerateMermaid(sess.Store.Snapshot(), overlay))
	}

	state := ctrl.State()
	if state == execution.Failed {
		return state, fmt.Errorf("run failed")
	}
	return state, nil
}

func handleEvent(e execution.Event, printer *tui.ConsolePrinter, flushConsole func()) {
	switch e.Kind {
	case execution.EventConsole:
		flushConsole()
	case execution.EventNotification:
		flushConsole()
		printer.Notification(e.Notification)
	}
}
