package render

import (
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/nodemap/pkg/errors"
)

// Registry maps target names to surfaces.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[string]Surface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[string]Surface)}
}

// Register adds or replaces the surface under name.
func (r *Registry) Register(name string, s Surface) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "target name cannot be empty")
	}
	if s == nil {
		return errors.New(errors.ErrCodeInvalidInput, "target %q has no surface", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[name] = s
	return nil
}

// Unregister removes the surface under name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, name)
}

// Names returns the registered target names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.surfaces))
	for name := range r.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the single surface whose name matches selector, a
// doublestar glob such as "sessions/*/main". Zero or several matches are
// an INVALID_TARGET error.
func (r *Registry) Resolve(selector string) (Surface, error) {
	if !doublestar.ValidatePattern(selector) {
		return nil, errors.New(errors.ErrCodeInvalidTarget, "invalid target selector %q", selector)
	}

	var matches []string
	for _, name := range r.Names() {
		ok, err := doublestar.Match(selector, name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarget, err, "match target selector %q", selector)
		}
		if ok {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return nil, errors.New(errors.ErrCodeInvalidTarget, "no target matches %q", selector)
	case 1:
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.surfaces[matches[0]], nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidTarget,
			"single target expected, %d match %q: %s", len(matches), selector, strings.Join(matches, ", "))
	}
}
