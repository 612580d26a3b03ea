// Package net implements the line transports used by murmur nodes.
//
// A murmur node exchanges one JSON message per line of text. The runtime does
// not care where the lines come from; it consumes the Transport interface
// defined here. There are two implementations:
//
//   - Stream: reads lines from an io.Reader and writes lines to an
//     io.Writer. In production, these are the standard input and output of
//     the process.
//   - Inmem: lines are passed through channels. It is used in tests and to
//     run several nodes inside one process.
package net
