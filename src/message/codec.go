package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Reserved body keys. Payloads must not define fields with these names.
const (
	keyType      = "type"
	keyMsgID     = "msg_id"
	keyInReplyTo = "in_reply_to"
)

type wireMessage struct {
	Src  *string         `json:"src"`
	Dest *string         `json:"dest"`
	Body json.RawMessage `json:"body"`
}

type wireHeader struct {
	Type      *string `json:"type"`
	MsgID     *uint64 `json:"msg_id"`
	InReplyTo *uint64 `json:"in_reply_to"`
}

// Header is the routing information of a line, as returned by Peek.
type Header struct {
	Src  string
	Dest string
	Type string
}

// Encode turns a message into a single line of JSON, without the trailing
// newline. The payload fields are flattened into the body, next to the type,
// msg_id and in_reply_to fields.
func Encode(m *Message) ([]byte, error) {
	if m.Body.Payload == nil {
		return nil, errors.New("encode: message has no payload")
	}

	raw, err := json.Marshal(m.Body.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %v", m.Type(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: payload is not an object: %v", m.Type(), err)
	}
	for _, k := range []string{keyType, keyMsgID, keyInReplyTo} {
		if _, ok := fields[k]; ok {
			return nil, fmt.Errorf("encode %s: payload defines reserved field %q", m.Type(), k)
		}
	}

	if fields[keyType], err = json.Marshal(m.Body.Payload.Type()); err != nil {
		return nil, err
	}
	if m.Body.MsgID != nil {
		if fields[keyMsgID], err = json.Marshal(*m.Body.MsgID); err != nil {
			return nil, err
		}
	}
	if m.Body.InReplyTo != nil {
		if fields[keyInReplyTo], err = json.Marshal(*m.Body.InReplyTo); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireMessage{
		Src:  &m.Src,
		Dest: &m.Dest,
		Body: body,
	})
}

// Decode parses a line into a message whose payload is one of the variants of
// reg. Any failure is reported as a DecodeErr.
func Decode(line []byte, reg *Registry) (*Message, error) {
	wm, hdr, err := decodeEnvelope(line)
	if err != nil {
		return nil, err
	}

	payload, ok := reg.New(*hdr.Type)
	if !ok {
		return nil, NewDecodeErr(UnknownType, *hdr.Type, nil)
	}
	if err := json.Unmarshal(wm.Body, payload); err != nil {
		return nil, NewDecodeErr(InvalidPayload, *hdr.Type, err)
	}
	if v, ok := payload.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, NewDecodeErr(InvalidPayload, *hdr.Type, err)
		}
	}

	return &Message{
		Src:  *wm.Src,
		Dest: *wm.Dest,
		Body: Body{
			MsgID:     hdr.MsgID,
			InReplyTo: hdr.InReplyTo,
			Payload:   payload,
		},
	}, nil
}

// Peek decodes the envelope of a line without decoding its payload.
func Peek(line []byte) (Header, error) {
	wm, hdr, err := decodeEnvelope(line)
	if err != nil {
		return Header{}, err
	}
	return Header{
		Src:  *wm.Src,
		Dest: *wm.Dest,
		Type: *hdr.Type,
	}, nil
}

func decodeEnvelope(line []byte) (*wireMessage, *wireHeader, error) {
	var wm wireMessage
	if err := json.Unmarshal(line, &wm); err != nil {
		return nil, nil, NewDecodeErr(Malformed, "", err)
	}
	if wm.Src == nil || wm.Dest == nil {
		return nil, nil, NewDecodeErr(Malformed, "", errors.New("src and dest are required"))
	}

	body := bytes.TrimSpace(wm.Body)
	if len(body) == 0 || body[0] != '{' {
		return nil, nil, NewDecodeErr(Malformed, "", errors.New("body must be an object"))
	}

	var hdr wireHeader
	if err := json.Unmarshal(body, &hdr); err != nil {
		return nil, nil, NewDecodeErr(Malformed, "", err)
	}
	if hdr.Type == nil || *hdr.Type == "" {
		return nil, nil, NewDecodeErr(MissingType, "", nil)
	}

	return &wm, &hdr, nil
}
