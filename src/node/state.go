package node

import (
	"sync"
	"sync/atomic"
)

// State captures the state of a Runtime: Handshaking, Running, or Shutdown
type State uint32

const (
	// Handshaking is the initial state. The Runtime is waiting for, or
	// processing, the init message.
	Handshaking State = iota
	// Running is the steady state where messages and events are dispatched.
	Running
	// Shutdown is the final state.
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Handshaking:
		return "Handshaking"
	case Running:
		return "Running"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
	wg    sync.WaitGroup
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}
