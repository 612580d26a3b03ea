// Package node implements the dispatch runtime of a murmur node.
//
// A murmur node is a process that receives one JSON message per line on its
// input and writes one JSON message per line on its output. The Runtime owns
// the transport and turns the input stream into calls to a Handler, which
// holds the protocol-specific logic.
//
// # Handshake
//
// The first input line must be an init message. The Runtime decodes it,
// records the identity of the node and the roster of the cluster, calls
// Handler.OnInit, and replies with init_ok. Nothing else runs before the
// handshake has completed.
//
// # Dispatch
//
// After the handshake, a reader goroutine decodes each input line as a
// request or as a response, using the registries provided by the Handler, and
// pushes it to an unbounded queue. Lines that decode as neither are dropped.
// Timers started with Scheduler.Every push opaque events to the same queue. A
// single consumer drains the queue and calls exactly one of HandleRequest,
// HandleResponse or HandleEvent per item, so Handler callbacks never run
// concurrently. The payload returned by HandleRequest is sent back as the reply
// to the request.
//
// # Termination
//
// Run returns nil once the input is exhausted and every item queued before
// the end of input has been handled. It returns an error if the handshake
// fails, if a Handler callback fails, or if a message cannot be written.
// Cancelling the context passed to Run makes it return ctx.Err(), even while
// it is still waiting for the init message.
package node
