package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/net"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// ErrNoHandshake is returned by Run when the input ends before the init
// message.
var ErrNoHandshake = errors.New("input closed before init message")

// Runtime reads messages from a Transport and dispatches them to a Handler.
type Runtime struct {
	// state is accessed atomically and tracks the timer goroutines
	state

	conf    *Config
	logger  *logrus.Entry
	handler Handler
	trans   net.Transport
	queue   *queue
	timers  []*ControlTimer

	id      atomic.Value
	nodeIDs []string

	// set once after OnInit, before the read loop starts
	requestReg  *message.Registry
	responseReg *message.Registry

	// only touched by the goroutine running Run
	lastMsgID uint64
	writeErr  error

	start     time.Time
	requests  uint64
	responses uint64
	events    uint64
	dropped   uint64
	sent      uint64
}

// NewRuntime creates a Runtime. The Runtime takes ownership of the transport
// and closes it when Run returns.
func NewRuntime(conf *Config, handler Handler, trans net.Transport) *Runtime {
	logger := conf.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	r := &Runtime{
		conf:    conf,
		logger:  logger,
		handler: handler,
		trans:   trans,
		queue:   newQueue(),
		start:   time.Now(),
	}
	r.id.Store("")
	r.setState(Handshaking)

	return r
}

// Run performs the handshake and dispatches messages and events until the
// input ends, an error occurs, or ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	go r.queue.run()
	defer r.shutdown()

	// unblock a pending ReadLine when ctx is cancelled
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			r.trans.Close()
		case <-stop:
		}
	}()

	if err := r.handshake(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	r.requestReg = r.handler.Requests()
	r.responseReg = r.handler.Responses()

	r.setState(Running)
	go r.readLoop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case it := <-r.queue.items():
			done, err := r.dispatch(it)
			if err != nil {
				// the transport is closed on cancellation, which fails reads
				// and writes
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.WithError(err).Error("Dispatch")
				return err
			}
			if done {
				r.logger.Debug("End of input")
				return nil
			}
		}
	}
}

type readResult struct {
	line []byte
	err  error
}

// readInit waits for the first input line. Closing a transport does not
// always unblock ReadLine (stdin cannot be interrupted), so the read runs in
// its own goroutine and is abandoned if ctx is cancelled first.
func (r *Runtime) readInit(ctx context.Context) ([]byte, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := r.trans.ReadLine()
		ch <- readResult{line, err}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Runtime) handshake(ctx context.Context) error {
	line, err := r.readInit(ctx)
	if err == io.EOF {
		return ErrNoHandshake
	}
	if err != nil {
		return fmt.Errorf("reading init message: %v", err)
	}

	msg, err := message.Decode(line, message.InitRegistry())
	if err != nil {
		return fmt.Errorf("decoding init message: %v", err)
	}
	init := msg.Body.Payload.(*message.Init)

	r.id.Store(init.NodeID)
	r.nodeIDs = init.NodeIDs
	r.logger = r.logger.WithField("node_id", init.NodeID)
	r.queue.setGauge(telemetry.QueueDepth.WithLabelValues(init.NodeID))

	r.logger.WithField("node_ids", init.NodeIDs).Debug("Init")

	if err := r.handler.OnInit(r, init); err != nil {
		return fmt.Errorf("init: %v", err)
	}

	if err := r.reply(msg, &message.InitOk{}); err != nil {
		return err
	}

	return nil
}

func (r *Runtime) readLoop() {
	for {
		line, err := r.trans.ReadLine()
		if err != nil {
			if err == io.EOF {
				r.queue.push(item{kind: itemEOF})
			} else {
				r.queue.push(item{kind: itemFailure, err: err})
			}
			return
		}

		it, ok := r.classify(line)
		if !ok {
			continue
		}
		if !r.queue.push(it) {
			return
		}
	}
}

// classify decodes a line as a request, or else as a response.
func (r *Runtime) classify(line []byte) (item, bool) {
	msg, reqErr := message.Decode(line, r.requestReg)
	if reqErr == nil {
		return item{kind: itemRequest, msg: msg}, true
	}

	msg, respErr := message.Decode(line, r.responseReg)
	if respErr == nil {
		return item{kind: itemResponse, msg: msg}, true
	}

	atomic.AddUint64(&r.dropped, 1)
	telemetry.MessagesDropped.Inc()

	fields := logrus.Fields{
		"request_error":  reqErr,
		"response_error": respErr,
	}
	if h, err := message.Peek(line); err == nil {
		fields["src"] = h.Src
		fields["type"] = h.Type
	}
	r.logger.WithFields(fields).Debug("Dropping undecodable line")

	return item{}, false
}

// dispatch returns true when the end of input is reached.
func (r *Runtime) dispatch(it item) (bool, error) {
	start := time.Now()

	var err error
	switch it.kind {
	case itemRequest:
		atomic.AddUint64(&r.requests, 1)
		err = r.handleRequest(it.msg)
	case itemResponse:
		atomic.AddUint64(&r.responses, 1)
		if err = r.handler.HandleResponse(r, it.msg); err != nil {
			err = fmt.Errorf("handling %s response from %s: %v", it.msg.Type(), it.msg.Src, err)
		}
	case itemEvent:
		atomic.AddUint64(&r.events, 1)
		if err = r.handler.HandleEvent(r, it.event); err != nil {
			err = fmt.Errorf("handling event %T: %v", it.event, err)
		}
	case itemEOF:
		return true, nil
	case itemFailure:
		return true, fmt.Errorf("reading input: %v", it.err)
	}

	telemetry.HandlerDuration.WithLabelValues(it.kind.String()).Observe(time.Since(start).Seconds())
	if it.msg != nil {
		telemetry.MessagesReceived.WithLabelValues(it.kind.String()).Inc()
	}

	if err != nil {
		return false, err
	}
	if r.writeErr != nil {
		return false, r.writeErr
	}
	return false, nil
}

func (r *Runtime) handleRequest(req *message.Message) error {
	payload, err := r.handler.HandleRequest(r, req)
	if err != nil {
		return fmt.Errorf("handling %s request from %s: %v", req.Type(), req.Src, err)
	}
	if payload == nil {
		return fmt.Errorf("no reply to %s request from %s", req.Type(), req.Src)
	}
	return r.reply(req, payload)
}

func (r *Runtime) reply(req *message.Message, payload message.Payload) error {
	return r.write(message.Reply(req, r.nextMsgID(), payload))
}

func (r *Runtime) nextMsgID() uint64 {
	r.lastMsgID++
	return r.lastMsgID
}

// write encodes and writes a message. The first failure is recorded and
// terminates Run, even if the Handler ignores it.
func (r *Runtime) write(msg *message.Message) error {
	if r.writeErr != nil {
		return r.writeErr
	}

	line, err := message.Encode(msg)
	if err != nil {
		r.writeErr = fmt.Errorf("encoding %s message: %v", msg.Type(), err)
		return r.writeErr
	}

	if err := r.trans.WriteLine(line); err != nil {
		r.writeErr = fmt.Errorf("writing %s message: %v", msg.Type(), err)
		return r.writeErr
	}

	atomic.AddUint64(&r.sent, 1)
	telemetry.MessagesSent.WithLabelValues(msg.Type()).Inc()

	return nil
}

// ID implements the Outbox interface.
func (r *Runtime) ID() string {
	return r.id.Load().(string)
}

// NodeIDs implements the Outbox interface.
func (r *Runtime) NodeIDs() []string {
	return r.nodeIDs
}

// Send implements the Outbox interface.
func (r *Runtime) Send(dest string, payload message.Payload) (uint64, error) {
	id := r.nextMsgID()
	return id, r.write(message.NewMessage(r.ID(), dest, &id, payload))
}

// Every implements the Scheduler interface.
func (r *Runtime) Every(period time.Duration, ev Event) {
	timer := NewPeriodicControlTimer(period, func() {
		r.queue.push(item{kind: itemEvent, event: ev})
	})
	r.timers = append(r.timers, timer)
	r.goFunc(timer.Run)

	r.logger.WithFields(logrus.Fields{
		"period": period,
		"event":  fmt.Sprintf("%T", ev),
	}).Debug("Timer started")
}

func (r *Runtime) shutdown() {
	r.setState(Shutdown)

	for _, t := range r.timers {
		t.Shutdown()
	}
	r.queue.close()

	if err := r.trans.Close(); err != nil {
		r.logger.WithError(err).Debug("Closing transport")
	}

	r.waitRoutines()
}

// GetState returns the current state of the Runtime.
func (r *Runtime) GetState() State {
	return r.getState()
}

// GetStats returns counters describing the activity of the Runtime. It is
// safe to call it from any goroutine.
func (r *Runtime) GetStats() map[string]string {
	toString := func(addr *uint64) string {
		return strconv.FormatUint(atomic.LoadUint64(addr), 10)
	}

	return map[string]string{
		"id":                r.ID(),
		"state":             r.getState().String(),
		"requests_handled":  toString(&r.requests),
		"responses_handled": toString(&r.responses),
		"events_handled":    toString(&r.events),
		"messages_dropped":  toString(&r.dropped),
		"messages_sent":     toString(&r.sent),
		"uptime":            time.Since(r.start).Round(time.Second).String(),
	}
}
