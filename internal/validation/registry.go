package validation

import (
	"sync"

	"github.com/formscore/formscore/internal/schema"
)

// CustomFunc is a pure predicate run for validation rules of type "custom".
// It returns ok=false to fail the field; a non-empty msg overrides the rule's
// static message. Implementations must be side-effect free.
type CustomFunc func(v schema.Value) (ok bool, msg string)

// Registry holds named custom validators. Rules reference validators by name
// so configs stay declarative and serializable.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]CustomFunc
}

// NewRegistry creates an empty validator registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]CustomFunc)}
}

// Register installs or replaces a named validator.
func (r *Registry) Register(name string, fn CustomFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (CustomFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

var defaultRegistry = NewRegistry()

// Register installs a validator in the package-level registry used by
// ValidateField and ValidateForm.
func Register(name string, fn CustomFunc) {
	defaultRegistry.Register(name, fn)
}
