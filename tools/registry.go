package tools

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Descriptor describes a registered tool and its invocation policy.
type Descriptor struct {
	Tool    ITool
	Enabled bool
	// Timeout bounds a single invocation, zero means no bound.
	Timeout time.Duration
	// DefaultInputs are merged into the call arguments for keys the model omits.
	DefaultInputs map[string]any
}

// RegisterOption configures a tool registration.
type RegisterOption func(*Descriptor)

// WithDisabled registers the tool in disabled state.
func WithDisabled() RegisterOption {
	return func(d *Descriptor) {
		d.Enabled = false
	}
}

// WithTimeout bounds a single invocation of the tool.
func WithTimeout(timeout time.Duration) RegisterOption {
	return func(d *Descriptor) {
		d.Timeout = timeout
	}
}

// WithDefaultInputs sets argument defaults merged into each call.
func WithDefaultInputs(defaults map[string]any) RegisterOption {
	return func(d *Descriptor) {
		d.DefaultInputs = defaults
	}
}

// Registry holds the tool descriptors addressable by tool name.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Descriptor
	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Descriptor),
	}
}

// Register adds a tool under its name. Registering a duplicate name is an error.
func (r *Registry) Register(tool ITool, ops ...RegisterOption) error {
	name := tool.Name()
	if name == "" {
		return errors.New("tool name is empty")
	}
	if tool.Parameters() == nil {
		return errors.Newf("tool has no parameter schema: %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		return errors.Newf("tool already registered: %s", name)
	}

	d := &Descriptor{
		Tool:    tool,
		Enabled: true,
	}
	for _, op := range ops {
		op(d)
	}
	r.tools[name] = d
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the descriptor of the named tool.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	if !ok {
		return nil, errors.WithMessagef(ErrToolNotFound, "%q", name)
	}
	cp := *d
	return &cp, nil
}

// SetEnabled toggles the named tool without unregistering it.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.tools[name]
	if !ok {
		return errors.WithMessagef(ErrToolNotFound, "%q", name)
	}
	d.Enabled = enabled
	return nil
}

// Descriptors returns copies of all descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		cp := *r.tools[name]
		res = append(res, &cp)
	}
	return res
}

// EnabledTools returns the enabled tools in registration order.
func (r *Registry) EnabledTools() []ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]ITool, 0, len(r.order))
	for _, name := range r.order {
		if d := r.tools[name]; d.Enabled {
			res = append(res, d.Tool)
		}
	}
	return res
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, len(r.order))
	copy(res, r.order)
	return res
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
