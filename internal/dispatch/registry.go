package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// Handler is the capability every action shares.
type Handler interface {
	// Validate reports every problem with params, not just the first.
	Validate(params Params) []error
	Execute(ctx context.Context, params Params, actx ActionContext) (any, error)
	// RequiredContext lists context keys needed beyond the defaults.
	RequiredContext() []string
}

// Describer is implemented by handlers that publish a catalog entry.
type Describer interface {
	Describe() FunctionDef
}

// Restricter is implemented by handlers gated behind allowUnsafeFunctions.
type Restricter interface {
	Restricted() bool
}

// HandlerFunc adapts a function into a Handler with no validation and no
// extra context.
type HandlerFunc func(ctx context.Context, params Params, actx ActionContext) (any, error)

func (f HandlerFunc) Validate(Params) []error { return nil }
func (f HandlerFunc) RequiredContext() []string { return nil }
func (f HandlerFunc) Execute(ctx context.Context, params Params, actx ActionContext) (any, error) {
	return f(ctx, params, actx)
}

var ErrRegistrySealed = errors.New("registry is sealed")

// Registry maps method names to handlers. It is filled at startup and sealed
// before the first dispatch; after Seal it is read-only and needs no locking.
type Registry struct {
	handlers map[string]Handler
	names    []string
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h under method.
func (r *Registry) Register(method string, h Handler) error {
	switch {
	case r.sealed:
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, method)
	case method == "":
		return errors.New("method name is empty")
	case h == nil:
		return fmt.Errorf("handler for %q is nil", method)
	}
	if _, dup := r.handlers[method]; dup {
		return fmt.Errorf("method %q already registered", method)
	}
	r.handlers[method] = h
	r.names = append(r.names, method)
	return nil
}

// MustRegister is Register that panics, for static wiring.
func (r *Registry) MustRegister(method string, h Handler) {
	if err := r.Register(method, h); err != nil {
		panic(err)
	}
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) Lookup(method string) (Handler, bool) {
	h, ok := r.handlers[method]
	return h, ok
}

// Methods returns the registered names in registration order.
func (r *Registry) Methods() []string {
	return append([]string(nil), r.names...)
}

// Catalog returns the function catalog in registration order. Handlers that
// do not describe themselves get a bare entry.
func (r *Registry) Catalog() []FunctionDef {
	out := make([]FunctionDef, 0, len(r.names))
	for _, name := range r.names {
		h := r.handlers[name]
		def := FunctionDef{Name: name, Category: CategoryUtility}
		if d, ok := h.(Describer); ok {
			def = d.Describe()
			def.Name = name
		}
		def.Restricted = isRestricted(h)
		out = append(out, def)
	}
	return out
}

func isRestricted(h Handler) bool {
	r, ok := h.(Restricter)
	return ok && r.Restricted()
}
