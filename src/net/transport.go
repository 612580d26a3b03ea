package net

import "errors"

var (
	// ErrTransportShutdown is returned when operations on a transport are
	// invoked after it's been closed.
	ErrTransportShutdown = errors.New("transport shutdown")
)

// Transport carries lines of text in and out of a node.
type Transport interface {

	// ReadLine blocks until a full line is available and returns it without
	// its terminator. It returns io.EOF once the input is exhausted.
	ReadLine() ([]byte, error)

	// WriteLine writes a single line, appending the terminator. The line is
	// flushed before WriteLine returns.
	WriteLine(line []byte) error

	// Close permanently closes a transport.
	Close() error
}
