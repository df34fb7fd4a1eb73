// Package simulate walks a flow without performing any side effect.
//
// It backs the dev server's /ws/execute endpoint: the walk emits the same
// protocol messages a real backend would (node_start, info, chunk,
// node_complete, node_error, complete) so that clients can be exercised
// end to end. Conditional nodes are evaluated with pkg/expression against
// the run payload; every other node only reports what it would do.
package simulate
