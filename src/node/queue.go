package node

import (
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/prometheus/client_golang/prometheus"
)

type itemKind int

const (
	itemRequest itemKind = iota
	itemResponse
	itemEvent
	itemEOF
	itemFailure
)

func (k itemKind) String() string {
	switch k {
	case itemRequest:
		return "request"
	case itemResponse:
		return "response"
	case itemEvent:
		return "event"
	case itemEOF:
		return "eof"
	case itemFailure:
		return "failure"
	default:
		return "unknown"
	}
}

type item struct {
	kind  itemKind
	msg   *message.Message
	event Event
	err   error
}

// queue is an unbounded FIFO with any number of producers and one consumer.
// A pump goroutine moves items from the in channel to an internal slice and
// from the slice to the out channel, so push never waits for the consumer.
type queue struct {
	in   chan item
	out  chan item
	done chan struct{}
	once sync.Once

	// holds a depthGauge once the node id is known
	gauge atomic.Value
}

type depthGauge struct {
	prometheus.Gauge
}

func newQueue() *queue {
	return &queue{
		in:   make(chan item),
		out:  make(chan item),
		done: make(chan struct{}),
	}
}

func (q *queue) run() {
	var pending []item
	for {
		var out chan item
		var next item
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}

		select {
		case it := <-q.in:
			pending = append(pending, it)
		case out <- next:
			pending[0] = item{}
			pending = pending[1:]
		case <-q.done:
			q.setDepth(0)
			return
		}
		q.setDepth(len(pending))
	}
}

// setGauge starts reporting the queue depth to g.
func (q *queue) setGauge(g prometheus.Gauge) {
	q.gauge.Store(depthGauge{g})
}

func (q *queue) setDepth(n int) {
	if g, ok := q.gauge.Load().(depthGauge); ok {
		g.Set(float64(n))
	}
}

// push returns false if the queue has been closed.
func (q *queue) push(it item) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.in <- it:
		return true
	case <-q.done:
		return false
	}
}

func (q *queue) items() <-chan item {
	return q.out
}

func (q *queue) close() {
	q.once.Do(func() {
		close(q.done)
	})
}
