package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/arthur-debert/macsetup/pkg/errors"
)

// Registry holds named items in the order they were added. Modules and
// automations are both declared through one.
type Registry[T any] interface {
	Register(name string, item T) error
	Get(name string) (T, error)
	// List returns the names sorted alphabetically.
	List() []string
	// Ordered returns the names in registration order.
	Ordered() []string
	Has(name string) bool
	Count() int
}

type entry[T any] struct {
	name string
	item T
}

type registry[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	index   map[string]int
}

// New returns an empty Registry.
func New[T any]() Registry[T] {
	return &registry[T]{index: map[string]int{}}
}

func (r *registry[T]) Register(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "cannot register an unnamed entry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.index[name]; dup {
		return errors.Newf(errors.ErrAlreadyExists, "%s is declared twice", name).
			WithDetail("name", name)
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry[T]{name: name, item: item})
	return nil
}

func (r *registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		var zero T
		return zero, errors.Newf(errors.ErrNotFound, "%s is not declared", name).
			WithDetail("name", name)
	}
	return r.entries[i].item, nil
}

func (r *registry[T]) List() []string {
	names := r.Ordered()
	slices.Sort(names)
	return names
}

func (r *registry[T]) Ordered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	return names
}

func (r *registry[T]) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.index[name]
	r.mu.RUnlock()
	return ok
}

func (r *registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// MustRegister is for static tables, where a bad name is a programming error.
func MustRegister[T any](reg Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
}
