// Package api is the HTTP client for the flowstudio backend.
//
// Every call takes a context, carries the configured assistant id, and goes
// through a circuit breaker. Failures are returned as *domain.TransportError,
// wrapping domain.ErrNotFound on 404 and gobreaker.ErrOpenState while the
// breaker is open.
package api
