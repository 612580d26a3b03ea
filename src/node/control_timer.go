package node

import (
	"sync"
	"time"
)

type timerFactory func(time.Duration) <-chan time.Time

// ControlTimer calls a function every period until it is shut down. The timer
// is re-armed after each call, so a slow callback delays the next tick rather
// than piling up ticks.
type ControlTimer struct {
	timerFactory timerFactory
	period       time.Duration
	fire         func()
	shutdownCh   chan struct{} //receives instruction to exit Run loop
	shutdownOnce sync.Once
}

// NewControlTimer creates a ControlTimer from a timer factory.
func NewControlTimer(timerFactory timerFactory, period time.Duration, fire func()) *ControlTimer {
	return &ControlTimer{
		timerFactory: timerFactory,
		period:       period,
		fire:         fire,
		shutdownCh:   make(chan struct{}),
	}
}

// NewPeriodicControlTimer creates a ControlTimer based on time.After.
func NewPeriodicControlTimer(period time.Duration, fire func()) *ControlTimer {
	after := func(d time.Duration) <-chan time.Time {
		if d <= 0 {
			return nil
		}
		return time.After(d)
	}
	return NewControlTimer(after, period, fire)
}

// Run blocks until Shutdown is called.
func (c *ControlTimer) Run() {
	timer := c.timerFactory(c.period)
	for {
		select {
		case <-timer:
			c.fire()
			timer = c.timerFactory(c.period)
		case <-c.shutdownCh:
			return
		}
	}
}

// Shutdown stops the Run loop. It is safe to call it more than once.
func (c *ControlTimer) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
	})
}
