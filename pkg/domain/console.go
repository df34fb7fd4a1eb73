package domain

import "time"

// ConsoleKind classifies a console line.
type ConsoleKind string

const (
	ConsoleInfo  ConsoleKind = "info"
	ConsoleError ConsoleKind = "error"
	ConsoleChunk ConsoleKind = "chunk" // streamed partial output
)

// ConsoleLine is one entry of the execution log.
type ConsoleLine struct {
	Timestamp int64       `json:"timestamp"` // unix milliseconds
	Kind      ConsoleKind `json:"kind"`
	Text      string      `json:"text"`
}

// NewConsoleLine stamps a line with the current wall clock.
func NewConsoleLine(kind ConsoleKind, text string) ConsoleLine {
	return ConsoleLine{
		Timestamp: time.Now().UnixMilli(),
		Kind:      kind,
		Text:      text,
	}
}
