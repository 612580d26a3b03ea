package broadcast

import (
	"encoding/json"
	"errors"

	"github.com/mosaicnetworks/murmur/src/message"
)

// Payload tags of the broadcast protocol.
const (
	TypeTopology    = "topology"
	TypeTopologyOk  = "topology_ok"
	TypeRead        = "read"
	TypeReadOk      = "read_ok"
	TypeBroadcast   = "broadcast"
	TypeBroadcastOk = "broadcast_ok"
	TypeGossip      = "gossip"
	TypeGossipOk    = "gossip_ok"
)

// Topology gives the adjacency list of every node of the cluster.
type Topology struct {
	Topology map[string][]string `json:"topology"`
}

// Type implements message.Payload.
func (Topology) Type() string { return TypeTopology }

// Validate implements message.Validator.
func (t *Topology) Validate() error {
	if t.Topology == nil {
		return errors.New("topology is required")
	}
	return nil
}

// TopologyOk ...
type TopologyOk struct{}

// Type implements message.Payload.
func (TopologyOk) Type() string { return TypeTopologyOk }

// Read requests the values held by the node.
type Read struct{}

// Type implements message.Payload.
func (Read) Type() string { return TypeRead }

// ReadOk ...
type ReadOk struct {
	Messages ValueSet `json:"messages"`
}

// Type implements message.Payload.
func (ReadOk) Type() string { return TypeReadOk }

// Broadcast adds a value to the cluster.
type Broadcast struct {
	Message uint64 `json:"message"`
}

// Type implements message.Payload.
func (Broadcast) Type() string { return TypeBroadcast }

// UnmarshalJSON rejects a broadcast without message, which would otherwise be
// read as the value 0.
func (b *Broadcast) UnmarshalJSON(data []byte) error {
	var aux struct {
		Message *uint64 `json:"message"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Message == nil {
		return errors.New("message is required")
	}
	b.Message = *aux.Message
	return nil
}

// BroadcastOk ...
type BroadcastOk struct{}

// Type implements message.Payload.
func (BroadcastOk) Type() string { return TypeBroadcastOk }

// Gossip carries values from one node to a neighbour. Every value it carries
// is held by the sender.
type Gossip struct {
	IDs ValueSet `json:"ids"`
}

// Type implements message.Payload.
func (Gossip) Type() string { return TypeGossip }

// Validate implements message.Validator.
func (g *Gossip) Validate() error {
	if g.IDs == nil {
		return errors.New("ids is required")
	}
	return nil
}

// GossipOk answers a Gossip with every value held by the replier.
type GossipOk struct {
	IDs ValueSet `json:"ids"`
}

// Type implements message.Payload.
func (GossipOk) Type() string { return TypeGossipOk }

// Validate implements message.Validator.
func (g *GossipOk) Validate() error {
	if g.IDs == nil {
		return errors.New("ids is required")
	}
	return nil
}

// Requests returns the registry of the requests accepted by a broadcast node.
func Requests() *message.Registry {
	return message.NewRegistry(
		func() message.Payload { return &Topology{} },
		func() message.Payload { return &Read{} },
		func() message.Payload { return &Broadcast{} },
		func() message.Payload { return &Gossip{} },
	)
}

// Responses returns the registry of the responses a broadcast node may
// receive. Only gossip_ok is expected, since gossip is the only request a
// broadcast node sends, but the other replies of the protocol decode too so
// that misrouted replies are reported instead of dropped.
func Responses() *message.Registry {
	return message.NewRegistry(
		func() message.Payload { return &TopologyOk{} },
		func() message.Payload { return &ReadOk{} },
		func() message.Payload { return &BroadcastOk{} },
		func() message.Payload { return &GossipOk{} },
	)
}
