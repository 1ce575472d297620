package plan

import (
	"sort"
	"sync"

	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
)

// MapperFactory builds a mapper from stage arguments.
type MapperFactory func(args Args) (operation.Mapper, error)

// ReducerFactory builds a reducer from stage arguments.
type ReducerFactory func(args Args) (operation.Reducer, error)

// Registry maps operation names to factories for plan resolution.
// A Registry is an explicit value; there is no process-wide default.
type Registry struct {
	mu       sync.RWMutex
	mappers  map[string]MapperFactory
	reducers map[string]ReducerFactory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		mappers:  make(map[string]MapperFactory),
		reducers: make(map[string]ReducerFactory),
	}
}

// RegisterMapper adds or replaces a mapper factory.
func (r *Registry) RegisterMapper(name string, f MapperFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappers[name] = f
}

// RegisterReducer adds or replaces a reducer factory.
func (r *Registry) RegisterReducer(name string, f ReducerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reducers[name] = f
}

// Mapper builds the mapper registered under name.
func (r *Registry) Mapper(name string, args Args) (operation.Mapper, error) {
	r.mu.RLock()
	f, ok := r.mappers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownOperation("mapper", name)
	}
	return f(args)
}

// Reducer builds the reducer registered under name.
func (r *Registry) Reducer(name string, args Args) (operation.Reducer, error) {
	r.mu.RLock()
	f, ok := r.reducers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.UnknownOperation("reducer", name)
	}
	return f(args)
}

// Mappers returns sorted names of all registered mappers.
func (r *Registry) Mappers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.mappers)
}

// Reducers returns sorted names of all registered reducers.
func (r *Registry) Reducers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.reducers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
