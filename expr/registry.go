package expr

import (
	"fmt"
	"sort"
	"sync"

	"coleval/trace"
)

// Registry maps operation names to factories. Registration happens once at
// startup; after Freeze the registry is read-only and safe for concurrent
// lookups from any number of plan builds.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	frozen    bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. A duplicate or late registration is a startup
// defect and panics.
func (r *Registry) Register(name string, factory Factory) {
	if name == "" {
		panic("expr: register with empty operation name")
	}
	if factory == nil {
		panic(fmt.Sprintf("expr: register %q with nil factory", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic(fmt.Sprintf("expr: register %q after registry was frozen", name))
	}
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("expr: operation %q registered twice", name))
	}
	r.factories[name] = factory
}

// Freeze ends the registration phase.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	n := len(r.factories)
	r.mu.Unlock()

	trace.Get().Debug(trace.ComponentRegistry, "Registry frozen", trace.Context("operations", n))
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownOperationError{Name: name}
	}
	return factory, nil
}

// Names returns every registered operation name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Create looks up the node's operation and builds its evaluator. Every
// declared argument must be consumed by the factory.
func (r *Registry) Create(info *StaticInfo) (Evaluator, error) {
	factory, err := r.Get(info.Operation())
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", info.Index(), err)
	}
	ev, err := factory(info)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", info.Index(), err)
	}
	if ev == nil {
		return nil, fmt.Errorf("node %d: operation %s returned no evaluator", info.Index(), info.Operation())
	}
	if info.Remaining() > 0 {
		return nil, fmt.Errorf("node %d: %w", info.Index(), &ArityError{
			Operation: info.Operation(),
			Expected:  info.NumArguments() - info.Remaining(),
			Given:     info.NumArguments(),
		})
	}
	return &boundEvaluator{
		inner:      ev,
		operation:  info.Operation(),
		index:      info.Index(),
		argTypes:   info.ArgumentTypes(),
		resultType: info.ResultType(),
	}, nil
}
