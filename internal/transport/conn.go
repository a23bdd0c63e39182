// Package transport carries protocol lines over TCP or WebSocket.
package transport

import (
	"context"
	"errors"
	"strings"
)

// Errors
var (
	ErrLineTooLong = errors.New("line exceeds maximum length")
	ErrClosed      = errors.New("connection closed")
)

// DefaultMaxLine bounds a single inbound line when no limit is configured.
const DefaultMaxLine = 256

// Conn is one client connection exchanging newline-free protocol lines.
type Conn interface {
	// ReadLine blocks for the next line, without its terminator.
	ReadLine(ctx context.Context) (string, error)
	// WriteLine sends one line; the transport adds framing.
	WriteLine(ctx context.Context, line string) error
	Close() error
	RemoteAddr() string
	// Kind names the transport ("tcp" or "ws").
	Kind() string
}

func trimLine(s string) string { return strings.TrimRight(s, "\r\n") }

func normMax(n int) int {
	if n <= 0 {
		return DefaultMaxLine
	}
	return n
}
