package message

// Payload is the type-specific part of a message body. Type returns the tag
// written to the "type" field of the body.
type Payload interface {
	Type() string
}

// Validator is implemented by payloads with required fields. Validate is called
// after the fields have been decoded.
type Validator interface {
	Validate() error
}

// Body is the body of a message. MsgID is set by the sender of a message for its
// own bookkeeping. InReplyTo is only set on replies and echoes the MsgID of the
// request.
type Body struct {
	MsgID     *uint64
	InReplyTo *uint64
	Payload   Payload
}

// Message is a single unit of communication between two nodes. One Message is
// written per line of transport.
type Message struct {
	Src  string
	Dest string
	Body Body
}

// NewMessage creates a fresh (non-reply) message. msgID may be nil for
// messages that do not expect to be correlated with a reply.
func NewMessage(src, dest string, msgID *uint64, payload Payload) *Message {
	return &Message{
		Src:  src,
		Dest: dest,
		Body: Body{
			MsgID:   msgID,
			Payload: payload,
		},
	}
}

// Reply builds the response to req: source and destination are swapped,
// InReplyTo is set to the MsgID of the request and msgID is used as the fresh
// MsgID of the reply.
func Reply(req *Message, msgID uint64, payload Payload) *Message {
	var inReplyTo *uint64
	if req.Body.MsgID != nil {
		id := *req.Body.MsgID
		inReplyTo = &id
	}

	return &Message{
		Src:  req.Dest,
		Dest: req.Src,
		Body: Body{
			MsgID:     &msgID,
			InReplyTo: inReplyTo,
			Payload:   payload,
		},
	}
}

// Type returns the payload tag of the message, or the empty string if the
// message has no payload.
func (m *Message) Type() string {
	if m.Body.Payload == nil {
		return ""
	}
	return m.Body.Payload.Type()
}

// ID is a convenience to build *uint64 message ids.
func ID(id uint64) *uint64 {
	return &id
}
