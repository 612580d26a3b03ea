package broadcast

import (
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Sync is the timer event that triggers a round of anti-entropy.
type Sync struct{}

// Node is a node.Handler implementing the broadcast protocol. Apart from
// GetStats, its methods must be called from a single goroutine, which the
// node.Runtime guarantees.
type Node struct {
	conf   *Config
	logger *logrus.Entry

	id       string
	values   ValueSet
	topology map[string][]string

	// known holds, for every node named in the topology, the values that
	// node is known to hold. Entries only grow.
	known map[string]ValueSet

	numValues        int64
	numNeighbours    int64
	topologySet      int32
	gossipSent       uint64
	gossipValuesSent uint64
}

// NewNode creates a broadcast Node.
func NewNode(conf *Config) *Node {
	logger := conf.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	return &Node{
		conf:   conf,
		logger: logger,
		values: make(ValueSet),
		known:  make(map[string]ValueSet),
	}
}

// Requests implements node.Handler.
func (n *Node) Requests() *message.Registry {
	return Requests()
}

// Responses implements node.Handler.
func (n *Node) Responses() *message.Registry {
	return Responses()
}

// OnInit implements node.Handler. It starts the anti-entropy timer.
func (n *Node) OnInit(s node.Scheduler, init *message.Init) error {
	n.id = init.NodeID
	n.logger = n.logger.WithField("node_id", n.id)

	interval := n.conf.GossipInterval
	if interval <= 0 {
		interval = DefaultGossipInterval
	}
	s.Every(interval, Sync{})

	return nil
}

// HandleRequest implements node.Handler.
func (n *Node) HandleRequest(out node.Outbox, req *message.Message) (message.Payload, error) {
	switch p := req.Body.Payload.(type) {
	case *Topology:
		n.installTopology(p.Topology)
		return &TopologyOk{}, nil
	case *Read:
		return &ReadOk{Messages: n.values.Clone()}, nil
	case *Broadcast:
		if n.values.Add(p.Message) {
			n.valuesChanged()
		}
		return &BroadcastOk{}, nil
	case *Gossip:
		n.learn(req.Src, p.IDs)
		return &GossipOk{IDs: n.values.Clone()}, nil
	default:
		return nil, fmt.Errorf("unexpected request %s", req.Type())
	}
}

// HandleResponse implements node.Handler. The replier is not recorded as
// holding the values it returns.
func (n *Node) HandleResponse(out node.Outbox, resp *message.Message) error {
	switch p := resp.Body.Payload.(type) {
	case *GossipOk:
		if n.values.Union(p.IDs) > 0 {
			n.valuesChanged()
		}
		return nil
	default:
		return fmt.Errorf("unexpected response %s", resp.Type())
	}
}

// HandleEvent implements node.Handler.
func (n *Node) HandleEvent(out node.Outbox, ev node.Event) error {
	switch ev.(type) {
	case Sync:
		return n.sync(out)
	default:
		return fmt.Errorf("unexpected event %T", ev)
	}
}

// installTopology records the topology and seeds an empty estimate for every
// node it names. Existing estimates are kept.
func (n *Node) installTopology(topology map[string][]string) {
	n.topology = topology

	for name, neighbours := range topology {
		n.seed(name)
		for _, nb := range neighbours {
			n.seed(nb)
		}
	}

	atomic.StoreInt32(&n.topologySet, 1)
	atomic.StoreInt64(&n.numNeighbours, int64(len(topology[n.id])))

	n.logger.WithField("neighbours", topology[n.id]).Debug("Topology installed")
}

func (n *Node) seed(name string) {
	if _, ok := n.known[name]; !ok {
		n.known[name] = make(ValueSet)
	}
}

// learn records that src holds ids and merges them into the local values.
func (n *Node) learn(src string, ids ValueSet) {
	n.seed(src)
	n.known[src].Union(ids)

	if n.values.Union(ids) > 0 {
		n.valuesChanged()
	}
}

// sync sends each neighbour the values it is not known to hold. Neighbours
// already known to hold everything are skipped.
func (n *Node) sync(out node.Outbox) error {
	if n.topology == nil {
		return nil
	}

	neighbours, ok := n.topology[n.id]
	if !ok {
		n.logger.Debug("Topology has no entry for this node")
		return nil
	}

	sorted := append([]string(nil), neighbours...)
	sort.Strings(sorted)

	for _, nb := range sorted {
		known, ok := n.known[nb]
		if !ok {
			return fmt.Errorf("no estimate for neighbour %s", nb)
		}

		delta := n.values.Diff(known)
		if len(delta) == 0 {
			continue
		}

		if _, err := out.Send(nb, &Gossip{IDs: delta}); err != nil {
			return err
		}

		atomic.AddUint64(&n.gossipSent, 1)
		atomic.AddUint64(&n.gossipValuesSent, uint64(len(delta)))
		telemetry.GossipValuesSent.Add(float64(len(delta)))
	}

	return nil
}

func (n *Node) valuesChanged() {
	atomic.StoreInt64(&n.numValues, int64(len(n.values)))
	telemetry.Values.WithLabelValues(n.id).Set(float64(len(n.values)))
}

// Values returns a copy of the values held by the node.
func (n *Node) Values() ValueSet {
	return n.values.Clone()
}

// Known returns a copy of the values the named node is known to hold, and
// whether the node has an estimate at all.
func (n *Node) Known(name string) (ValueSet, bool) {
	k, ok := n.known[name]
	if !ok {
		return nil, false
	}
	return k.Clone(), true
}

// GetStats returns counters describing the node. It is safe to call it from
// any goroutine.
func (n *Node) GetStats() map[string]string {
	return map[string]string{
		"values":             strconv.FormatInt(atomic.LoadInt64(&n.numValues), 10),
		"neighbours":         strconv.FormatInt(atomic.LoadInt64(&n.numNeighbours), 10),
		"topology":           strconv.FormatBool(atomic.LoadInt32(&n.topologySet) == 1),
		"gossip_sent":        strconv.FormatUint(atomic.LoadUint64(&n.gossipSent), 10),
		"gossip_values_sent": strconv.FormatUint(atomic.LoadUint64(&n.gossipValuesSent), 10),
	}
}
