// Package message defines the wire format exchanged between murmur nodes and
// the codec that turns it into lines of text.
//
// Every message is a JSON object with a source, a destination and a body:
//
//	{"src":"n1","dest":"n2","body":{"type":"gossip","msg_id":3,"ids":[1,2]}}
//
// The body carries an optional msg_id, chosen by the sender, an optional
// in_reply_to, which echoes the msg_id of the request being answered, and the
// fields of a payload. Payloads are tagged by the "type" field. The set of
// payload types a node understands is described by a Registry, and a line only
// decodes if its type is registered and its fields match that payload.
package message
