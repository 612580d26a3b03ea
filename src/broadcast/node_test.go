package broadcast

import (
	"reflect"
	"testing"
	"time"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type sent struct {
	dest    string
	payload message.Payload
}

// recordingOutbox implements node.Scheduler without a runtime.
type recordingOutbox struct {
	id      string
	lastID  uint64
	sent    []sent
	periods []time.Duration
	events  []node.Event
}

func (o *recordingOutbox) ID() string        { return o.id }
func (o *recordingOutbox) NodeIDs() []string { return nil }

func (o *recordingOutbox) Send(dest string, payload message.Payload) (uint64, error) {
	o.lastID++
	o.sent = append(o.sent, sent{dest: dest, payload: payload})
	return o.lastID, nil
}

func (o *recordingOutbox) Every(period time.Duration, ev node.Event) {
	o.periods = append(o.periods, period)
	o.events = append(o.events, ev)
}

func (o *recordingOutbox) drain() []sent {
	res := o.sent
	o.sent = nil
	return res
}

func initNode(t *testing.T, id string) (*Node, *recordingOutbox) {
	n := NewNode(TestConfig(t))
	out := &recordingOutbox{id: id}
	if err := n.OnInit(out, &message.Init{NodeID: id, NodeIDs: []string{id}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	return n, out
}

func request(t *testing.T, n *Node, out node.Outbox, src string, p message.Payload) message.Payload {
	reply, err := n.HandleRequest(out, message.NewMessage(src, out.ID(), message.ID(1), p))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return reply
}

func read(t *testing.T, n *Node, out node.Outbox) ValueSet {
	reply := request(t, n, out, "c1", &Read{})
	ok, isReadOk := reply.(*ReadOk)
	if !isReadOk {
		t.Fatalf("expected read_ok, got %s", reply.Type())
	}
	return ok.Messages
}

func TestOnInitStartsTimer(t *testing.T) {
	conf := TestConfig(t)
	conf.GossipInterval = 50 * time.Millisecond

	n := NewNode(conf)
	out := &recordingOutbox{id: "n1"}
	if err := n.OnInit(out, &message.Init{NodeID: "n1"}); err != nil {
		t.Fatalf("err: %v", err)
	}

	if len(out.periods) != 1 || out.periods[0] != 50*time.Millisecond {
		t.Fatalf("expected one 50ms timer, got %v", out.periods)
	}
	if _, ok := out.events[0].(Sync); !ok {
		t.Fatalf("timer should produce Sync events, not %T", out.events[0])
	}
}

func TestBroadcastIdempotent(t *testing.T) {
	n, out := initNode(t, "n1")

	for i := 0; i < 3; i++ {
		reply := request(t, n, out, "c1", &Broadcast{Message: 5})
		if _, ok := reply.(*BroadcastOk); !ok {
			t.Fatalf("expected broadcast_ok, got %s", reply.Type())
		}
	}

	if !reflect.DeepEqual(read(t, n, out), NewValueSet(5)) {
		t.Fatalf("read should return {5}, got %v", read(t, n, out).Sorted())
	}
	if len(out.sent) != 0 {
		t.Fatal("broadcast should not be forwarded eagerly")
	}
}

func TestReadSnapshot(t *testing.T) {
	n, out := initNode(t, "n1")

	request(t, n, out, "c1", &Broadcast{Message: 1})
	snapshot := read(t, n, out)
	request(t, n, out, "c1", &Broadcast{Message: 2})

	if !reflect.DeepEqual(snapshot, NewValueSet(1)) {
		t.Fatalf("snapshot should stay {1}, got %v", snapshot.Sorted())
	}
}

func TestValuesGaugePerNode(t *testing.T) {
	a, outA := initNode(t, "gauge-a")
	b, outB := initNode(t, "gauge-b")

	request(t, a, outA, "c1", &Broadcast{Message: 1})
	request(t, a, outA, "c1", &Broadcast{Message: 2})
	request(t, b, outB, "c1", &Broadcast{Message: 3})

	if v := testutil.ToFloat64(telemetry.Values.WithLabelValues("gauge-a")); v != 2 {
		t.Fatalf("gauge-a should report 2 values, got %v", v)
	}
	if v := testutil.ToFloat64(telemetry.Values.WithLabelValues("gauge-b")); v != 1 {
		t.Fatalf("gauge-b should report 1 value, got %v", v)
	}
}

func TestTopologySeedsEstimates(t *testing.T) {
	n, out := initNode(t, "a")

	request(t, n, out, "c1", &Topology{Topology: map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
	}})

	for _, name := range []string{"a", "b", "c"} {
		k, ok := n.Known(name)
		if !ok {
			t.Fatalf("%s should have an estimate", name)
		}
		if len(k) != 0 {
			t.Fatalf("estimate of %s should be empty, got %v", name, k.Sorted())
		}
	}

	// a later topology must not erase what is known
	request(t, n, out, "b", &Gossip{IDs: NewValueSet(9)})
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{"a": {"b"}}})

	k, _ := n.Known("b")
	if !reflect.DeepEqual(k, NewValueSet(9)) {
		t.Fatalf("estimate of b should be kept, got %v", k.Sorted())
	}

	if stats := n.GetStats(); stats["topology"] != "true" || stats["neighbours"] != "1" {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestGossipBeforeBroadcast(t *testing.T) {
	n, out := initNode(t, "n1")
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{"n1": {"x"}, "x": {"n1"}}})

	reply := request(t, n, out, "x", &Gossip{IDs: NewValueSet(1, 2)})

	ok, isGossipOk := reply.(*GossipOk)
	if !isGossipOk {
		t.Fatalf("expected gossip_ok, got %s", reply.Type())
	}
	if !reflect.DeepEqual(ok.IDs, NewValueSet(1, 2)) {
		t.Fatalf("gossip_ok should carry {1,2}, got %v", ok.IDs.Sorted())
	}
	if !reflect.DeepEqual(n.Values(), NewValueSet(1, 2)) {
		t.Fatalf("values should be {1,2}, got %v", n.Values().Sorted())
	}
	if k, _ := n.Known("x"); !reflect.DeepEqual(k, NewValueSet(1, 2)) {
		t.Fatalf("estimate of x should be {1,2}, got %v", k.Sorted())
	}
}

func TestGossipFromUnknownSender(t *testing.T) {
	n, out := initNode(t, "n1")

	request(t, n, out, "stranger", &Gossip{IDs: NewValueSet(3)})

	if k, ok := n.Known("stranger"); !ok || !reflect.DeepEqual(k, NewValueSet(3)) {
		t.Fatalf("estimate of stranger should be {3}, got %v", k.Sorted())
	}
}

func TestGossipOkDoesNotUpdateEstimate(t *testing.T) {
	n, out := initNode(t, "a")
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{"a": {"b"}, "b": {"a"}}})
	request(t, n, out, "c1", &Broadcast{Message: 1})

	resp := &message.Message{
		Src:  "b",
		Dest: "a",
		Body: message.Body{MsgID: message.ID(3), InReplyTo: message.ID(1), Payload: &GossipOk{IDs: NewValueSet(1, 2)}},
	}
	if err := n.HandleResponse(out, resp); err != nil {
		t.Fatalf("err: %v", err)
	}

	if !reflect.DeepEqual(n.Values(), NewValueSet(1, 2)) {
		t.Fatalf("values should be {1,2}, got %v", n.Values().Sorted())
	}
	if k, _ := n.Known("b"); len(k) != 0 {
		t.Fatalf("estimate of b should stay empty, got %v", k.Sorted())
	}

	// so the delta is sent again on the next tick
	if err := n.HandleEvent(out, Sync{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	msgs := out.drain()
	if len(msgs) != 1 || msgs[0].dest != "b" {
		t.Fatalf("expected one gossip to b, got %v", msgs)
	}
	if g := msgs[0].payload.(*Gossip); !reflect.DeepEqual(g.IDs, NewValueSet(1, 2)) {
		t.Fatalf("gossip should carry {1,2}, got %v", g.IDs.Sorted())
	}
}

func TestSyncSendsDeltas(t *testing.T) {
	n, out := initNode(t, "a")
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{
		"a": {"c", "b"},
		"b": {"a"},
		"c": {"a"},
	}})
	request(t, n, out, "c1", &Broadcast{Message: 1})
	request(t, n, out, "c1", &Broadcast{Message: 2})
	request(t, n, out, "b", &Gossip{IDs: NewValueSet(1)})

	if err := n.HandleEvent(out, Sync{}); err != nil {
		t.Fatalf("err: %v", err)
	}

	msgs := out.drain()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 gossips, got %d", len(msgs))
	}
	// neighbours are visited in order
	if msgs[0].dest != "b" || msgs[1].dest != "c" {
		t.Fatalf("expected gossips to b then c, got %s then %s", msgs[0].dest, msgs[1].dest)
	}
	if g := msgs[0].payload.(*Gossip); !reflect.DeepEqual(g.IDs, NewValueSet(2)) {
		t.Fatalf("gossip to b should carry {2}, got %v", g.IDs.Sorted())
	}
	if g := msgs[1].payload.(*Gossip); !reflect.DeepEqual(g.IDs, NewValueSet(1, 2)) {
		t.Fatalf("gossip to c should carry {1,2}, got %v", g.IDs.Sorted())
	}

	stats := n.GetStats()
	if stats["gossip_sent"] != "2" || stats["gossip_values_sent"] != "3" {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestSyncNoRedundantSend(t *testing.T) {
	n, out := initNode(t, "a")
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{"a": {"b"}, "b": {"a"}}})
	request(t, n, out, "c1", &Broadcast{Message: 1})
	request(t, n, out, "b", &Gossip{IDs: NewValueSet(1, 2)})

	if err := n.HandleEvent(out, Sync{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("b holds everything, nothing should be sent, got %v", out.sent)
	}
}

func TestSyncWithoutTopology(t *testing.T) {
	n, out := initNode(t, "n1")

	reply := request(t, n, out, "c1", &Broadcast{Message: 7})
	if _, ok := reply.(*BroadcastOk); !ok {
		t.Fatalf("expected broadcast_ok, got %s", reply.Type())
	}

	for i := 0; i < 3; i++ {
		if err := n.HandleEvent(out, Sync{}); err != nil {
			t.Fatalf("err: %v", err)
		}
	}

	if len(out.sent) != 0 {
		t.Fatalf("no gossip should be sent without topology, got %v", out.sent)
	}
	if !reflect.DeepEqual(read(t, n, out), NewValueSet(7)) {
		t.Fatal("read should return {7}")
	}
}

func TestSyncSelfMissingFromTopology(t *testing.T) {
	n, out := initNode(t, "z")
	request(t, n, out, "c1", &Topology{Topology: map[string][]string{"a": {"b"}}})
	request(t, n, out, "c1", &Broadcast{Message: 1})

	if err := n.HandleEvent(out, Sync{}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", out.sent)
	}
}

func TestSyncMissingEstimateIsFatal(t *testing.T) {
	n, out := initNode(t, "a")
	request(t, n, out, "c1", &Broadcast{Message: 1})

	// bypass the seeding done by the topology handler
	n.topology = map[string][]string{"a": {"b"}}

	if err := n.HandleEvent(out, Sync{}); err == nil {
		t.Fatal("a neighbour without estimate should be an error")
	}
}

func TestProtocolViolations(t *testing.T) {
	n, out := initNode(t, "a")

	for _, p := range []message.Payload{&TopologyOk{}, &ReadOk{}, &BroadcastOk{}} {
		resp := message.NewMessage("b", "a", nil, p)
		if err := n.HandleResponse(out, resp); err == nil {
			t.Fatalf("%s response should be an error", p.Type())
		}
	}

	if err := n.HandleEvent(out, "tick"); err == nil {
		t.Fatal("unknown event should be an error")
	}

	if _, err := n.HandleRequest(out, message.NewMessage("c1", "a", nil, &ReadOk{})); err == nil {
		t.Fatal("read_ok request should be an error")
	}
}
