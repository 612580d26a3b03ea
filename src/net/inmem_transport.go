package net

import (
	"io"
	"sync"
)

// InmemTransport implements the Transport interface with channels, to allow
// nodes to be tested in-memory without going through the standard streams.
// Lines handed to Deliver are returned by ReadLine, and lines written with
// WriteLine are published on the Consumer channel.
type InmemTransport struct {
	inCh  chan []byte
	outCh chan []byte

	inputClosed  bool
	inputLock    sync.Mutex
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewInmemTransport creates an InmemTransport whose channels hold up to
// bufSize lines.
func NewInmemTransport(bufSize int) *InmemTransport {
	return &InmemTransport{
		inCh:       make(chan []byte, bufSize),
		outCh:      make(chan []byte, bufSize),
		shutdownCh: make(chan struct{}),
	}
}

// Deliver queues a line for ReadLine. It blocks while the input buffer is
// full.
func (i *InmemTransport) Deliver(line []byte) error {
	i.inputLock.Lock()
	defer i.inputLock.Unlock()

	if i.inputClosed {
		return io.ErrClosedPipe
	}

	cp := append([]byte(nil), line...)
	select {
	case i.inCh <- cp:
		return nil
	case <-i.shutdownCh:
		return ErrTransportShutdown
	}
}

// CloseInput signals the end of input. ReadLine returns io.EOF once the lines
// already delivered have been read.
func (i *InmemTransport) CloseInput() {
	i.inputLock.Lock()
	defer i.inputLock.Unlock()

	if !i.inputClosed {
		i.inputClosed = true
		close(i.inCh)
	}
}

// Consumer returns the channel on which written lines are published.
func (i *InmemTransport) Consumer() <-chan []byte {
	return i.outCh
}

// ReadLine implements the Transport interface.
func (i *InmemTransport) ReadLine() ([]byte, error) {
	select {
	case line, ok := <-i.inCh:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	case <-i.shutdownCh:
		return nil, ErrTransportShutdown
	}
}

// WriteLine implements the Transport interface.
func (i *InmemTransport) WriteLine(line []byte) error {
	cp := append([]byte(nil), line...)
	select {
	case <-i.shutdownCh:
		return ErrTransportShutdown
	default:
	}

	select {
	case i.outCh <- cp:
		return nil
	case <-i.shutdownCh:
		return ErrTransportShutdown
	}
}

// Close is used to permanently disable the transport.
func (i *InmemTransport) Close() error {
	i.shutdownOnce.Do(func() {
		close(i.shutdownCh)
	})
	return nil
}
