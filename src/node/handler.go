package node

import (
	"time"

	"github.com/mosaicnetworks/murmur/src/message"
)

// Event is an opaque value produced by a timer and passed back to
// Handler.HandleEvent.
type Event interface{}

// Outbox is the only way for a Handler to write messages.
type Outbox interface {
	// ID returns the identity of the node, as assigned by the init message.
	ID() string

	// NodeIDs returns the roster of the cluster, as listed by the init
	// message.
	NodeIDs() []string

	// Send writes a fresh message to dest and returns its msg_id.
	Send(dest string, payload message.Payload) (uint64, error)
}

// Scheduler is passed to Handler.OnInit to start timers.
type Scheduler interface {
	Outbox

	// Every pushes ev to the dispatch queue every period, until the Runtime
	// stops.
	Every(period time.Duration, ev Event)
}

// Handler holds the protocol-specific logic of a node. Its methods are never
// called concurrently.
type Handler interface {
	// Requests lists the payloads accepted as requests.
	Requests() *message.Registry

	// Responses lists the payloads accepted as responses to messages sent by
	// this node.
	Responses() *message.Registry

	// OnInit is called once, during the handshake, before init_ok is sent.
	OnInit(s Scheduler, init *message.Init) error

	// HandleRequest returns the payload of the reply to req.
	HandleRequest(out Outbox, req *message.Message) (message.Payload, error)

	// HandleResponse reacts to a response.
	HandleResponse(out Outbox, resp *message.Message) error

	// HandleEvent reacts to a timer event.
	HandleEvent(out Outbox, ev Event) error
}
