package lib

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var ErrUnknownStruct = errors.New("unknown struct")

// Binding is a host-side handle on one on-chain object.
type Binding interface {
	ObjectID() string
}

// Constructor binds an object id to a new instance of a generated type.
type Constructor func(objectID string, caller Caller) (Binding, error)

// InstantiationError wraps every failure to build a binding.
type InstantiationError struct {
	Struct string
	Err    error
}

func (e *InstantiationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not instantiate %s", e.Struct)
	}
	return fmt.Sprintf("could not instantiate %s: %v", e.Struct, e.Err)
}

func (e *InstantiationError) Unwrap() error { return e.Err }

// Registry maps on-chain struct names to binding constructors.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry(constructors map[string]Constructor) *Registry {
	r := &Registry{constructors: make(map[string]Constructor, len(constructors))}
	for name, c := range constructors {
		r.constructors[name] = c
	}
	return r
}

// Register adds or replaces the constructor for name.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = c
}

// Structs returns the registered names, sorted.
func (r *Registry) Structs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Resolve(name string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStruct, name)
	}
	return c, nil
}

// Instantiate resolves name and binds objectID with caller.
func (r *Registry) Instantiate(name, objectID string, caller Caller) (b Binding, err error) {
	c, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &InstantiationError{Struct: name, Err: errors.New("no constructor registered")}
	}

	defer func() {
		if p := recover(); p != nil {
			b = nil
			err = &InstantiationError{Struct: name, Err: fmt.Errorf("constructor panicked: %v", p)}
		}
	}()

	b, err = c(objectID, caller)
	if err != nil {
		return nil, &InstantiationError{Struct: name, Err: err}
	}
	if b == nil {
		return nil, &InstantiationError{Struct: name, Err: errors.New("constructor returned no binding")}
	}
	return b, nil
}
