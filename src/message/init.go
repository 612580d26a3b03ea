package message

import "errors"

// Payload tags of the handshake.
const (
	TypeInit   = "init"
	TypeInitOk = "init_ok"
)

// Init is the first message received by a node. It assigns the identity of the
// node and lists every node of the cluster.
type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

// Type implements Payload.
func (Init) Type() string { return TypeInit }

// Validate implements Validator.
func (i *Init) Validate() error {
	if i.NodeID == "" {
		return errors.New("node_id is required")
	}
	return nil
}

// InitOk acknowledges an Init.
type InitOk struct{}

// Type implements Payload.
func (InitOk) Type() string { return TypeInitOk }

// InitRegistry is the registry used to decode the handshake line.
func InitRegistry() *Registry {
	return NewRegistry(func() Payload { return &Init{} })
}
