package net

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"sync"
)

const (
	// DefaultBufferSize is the size of the read and write buffers of a
	// StreamTransport.
	DefaultBufferSize = 64 << 10
)

// StreamTransport reads newline-delimited lines from a reader and writes them
// to a writer.
type StreamTransport struct {
	r *bufio.Reader
	w *bufio.Writer

	closers []io.Closer

	shutdown     bool
	shutdownLock sync.Mutex
}

// NewStreamTransport creates a StreamTransport over r and w. If r or w
// implement io.Closer, they are closed with the transport.
func NewStreamTransport(r io.Reader, w io.Writer, bufSize int) *StreamTransport {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	trans := &StreamTransport{
		r: bufio.NewReaderSize(r, bufSize),
		w: bufio.NewWriterSize(w, bufSize),
	}
	if c, ok := r.(io.Closer); ok {
		trans.closers = append(trans.closers, c)
	}
	if c, ok := w.(io.Closer); ok {
		trans.closers = append(trans.closers, c)
	}

	return trans
}

// NewStdioTransport creates a StreamTransport over the standard input and
// output of the process. Closing it leaves stdin and stdout open.
func NewStdioTransport() *StreamTransport {
	return NewStreamTransport(struct{ io.Reader }{os.Stdin}, struct{ io.Writer }{os.Stdout}, DefaultBufferSize)
}

// ReadLine implements the Transport interface. Lines are not limited in size.
// A trailing line without terminator is returned before io.EOF.
func (s *StreamTransport) ReadLine() ([]byte, error) {
	line, err := s.r.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		if s.isShutdown() {
			return nil, ErrTransportShutdown
		}
		return nil, err
	}

	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})

	return line, nil
}

// WriteLine implements the Transport interface.
func (s *StreamTransport) WriteLine(line []byte) error {
	if s.isShutdown() {
		return ErrTransportShutdown
	}

	if _, err := s.w.Write(line); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}

	return s.w.Flush()
}

// Close implements the Transport interface.
func (s *StreamTransport) Close() error {
	s.shutdownLock.Lock()
	defer s.shutdownLock.Unlock()

	if s.shutdown {
		return nil
	}
	s.shutdown = true

	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *StreamTransport) isShutdown() bool {
	s.shutdownLock.Lock()
	defer s.shutdownLock.Unlock()
	return s.shutdown
}
