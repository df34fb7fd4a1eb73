package execution

import "context"

// Transport is a bidirectional message channel to the executor.
// Receive blocks until a frame arrives or the transport is closed.
// Close may be called concurrently with Receive and must unblock it.
type Transport interface {
	Send(ctx context.Context, v any) error
	Receive() ([]byte, error)
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, url string) (Transport, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, url string) (Transport, error) {
	return f(ctx, url)
}
