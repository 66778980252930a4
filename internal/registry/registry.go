// Package registry holds the statically-built table of property plugins.
// It is populated once at process start from an explicit list and is
// read-only afterwards; every entry receives a deterministic exit code at
// registration time.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PNOGillespie/aiidalab-qe/internal/domain"
)

var (
	ErrDuplicatePlugin = errors.New("plugin already registered")
	ErrUnknownPlugin   = errors.New("unknown plugin")
)

// BuilderFunc constructs the input namespace of one plugin sub-workflow
// from the selected codes, the input structure, and a private deep copy of
// the full parameters document.
type BuilderFunc func(codes map[string]string, structure *domain.StructureData, params *domain.ParametersDocument) (domain.Namespace, error)

// Entry is the registered description of one property plugin.
type Entry struct {
	// Name is the unique plugin key, also used as input/output namespace.
	Name string
	// WorkChain is the process type submitted to the execution engine.
	WorkChain string
	// Exclude lists input fields owned by the top-level builder that must
	// not appear in the plugin namespace.
	Exclude []string
	// GetBuilder constructs the plugin's sub-builder.
	GetBuilder BuilderFunc
	// Outputs is the output namespace the plugin's results are copied to.
	Outputs string
	// ExitCode is allocated at registration time, in registration order.
	ExitCode domain.ExitCode
}

// Registry is the process-wide plugin table.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Entry
	ordered []*Entry
}

func New() *Registry {
	return &Registry{byName: make(map[string]*Entry)}
}

// Register installs a plugin. The entry's exit code is assigned here, from
// the registration ordinal, so two registries built from the same plugin
// list always number their codes identically.
func (r *Registry) Register(name, workChain string, exclude []string, getBuilder BuilderFunc, outputs string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("plugin name is required")
	}
	if strings.TrimSpace(workChain) == "" {
		return fmt.Errorf("plugin %s: workchain is required", name)
	}
	if getBuilder == nil {
		return fmt.Errorf("plugin %s: builder constructor is required", name)
	}
	if outputs == "" {
		outputs = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, name)
	}
	entry := &Entry{
		Name:       name,
		WorkChain:  workChain,
		Exclude:    append([]string(nil), exclude...),
		GetBuilder: getBuilder,
		Outputs:    outputs,
		ExitCode:   domain.PluginExitCode(name, len(r.ordered)),
	}
	r.byName[name] = entry
	r.ordered = append(r.ordered, entry)
	return nil
}

// Get returns the entry for name.
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	return entry, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// All returns the entries in registration order. The returned slice is a
// copy; the entries themselves are shared and must not be mutated.
func (r *Registry) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.ordered))
	copy(out, r.ordered)
	return out
}
