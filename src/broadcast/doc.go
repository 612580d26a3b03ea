// Package broadcast implements a node that converges a set of broadcast values
// across a fixed network topology.
//
// Clients add values with broadcast requests and query them with read
// requests. Values are never forwarded when they are received. Instead, every
// GossipInterval the node sends each of its neighbours the values it is not
// known to hold yet (anti-entropy). The node only learns what a neighbour
// holds from the gossip requests that neighbour sends, never from the replies
// to its own gossip, so a delta is repeated until the neighbour gossips it
// back. All merges are set unions, which makes duplicated or reordered
// messages harmless.
package broadcast
