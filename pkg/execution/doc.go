// Package execution drives a flow run against a backend executor.
//
// A Controller opens a bidirectional transport (a WebSocket in production),
// sends a start request for the current flow, and turns the streamed protocol
// messages into console lines appended to the graph store in arrival order.
//
// The controller is an explicit state machine:
//
//	Idle -> Connecting -> Connected -> Running -> Completed | Failed -> Idle
//
// Illegal transitions return ErrInvalidTransition. Nothing reconnects on its
// own: every run needs a fresh Connect.
package execution
