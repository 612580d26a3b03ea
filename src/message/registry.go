package message

import (
	"sort"
)

// Registry maps payload tags to constructors. It describes the closed set of
// payload variants a node accepts in one direction (requests or responses).
type Registry struct {
	factories map[string]func() Payload
}

// NewRegistry creates a Registry from a list of constructors. Each constructor
// must return a pointer to a new, zero-valued payload, so that the decoder can
// fill it. The tag of each variant is read from a sample built by its
// constructor. NewRegistry panics if two constructors produce the same tag.
func NewRegistry(factories ...func() Payload) *Registry {
	r := &Registry{
		factories: make(map[string]func() Payload, len(factories)),
	}
	for _, f := range factories {
		r.Register(f)
	}
	return r
}

// Register adds a payload constructor to the registry.
func (r *Registry) Register(factory func() Payload) {
	t := factory().Type()
	if _, ok := r.factories[t]; ok {
		panic("message: duplicate payload type " + t)
	}
	r.factories[t] = factory
}

// Has reports whether the payload tag t is registered.
func (r *Registry) Has(t string) bool {
	_, ok := r.factories[t]
	return ok
}

// New returns a fresh payload for tag t.
func (r *Registry) New(t string) (Payload, bool) {
	f, ok := r.factories[t]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Types returns the registered tags in lexical order.
func (r *Registry) Types() []string {
	res := make([]string, 0, len(r.factories))
	for t := range r.factories {
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}
