package metadata

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownResource is returned by SchemaFor for an unregistered tag.
var ErrUnknownResource = errors.New("unknown resource type")

// Registry holds the resource schemas. It is built once at startup and never
// mutated afterwards, so it is safe for concurrent reads without locking.
type Registry struct {
	resources map[string]*Resource
	order     []string
}

// NewRegistry validates and indexes the given resources.
func NewRegistry(resources ...*Resource) (*Registry, error) {
	r := &Registry{resources: make(map[string]*Resource, len(resources))}
	for _, res := range resources {
		if err := res.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.resources[res.Name]; dup {
			return nil, fmt.Errorf("resource %s registered twice", res.Name)
		}
		r.resources[res.Name] = res
		r.order = append(r.order, res.Name)
	}
	return r, nil
}

// MustRegistry is NewRegistry for static definitions; it panics on an invalid schema.
func MustRegistry(resources ...*Resource) *Registry {
	r, err := NewRegistry(resources...)
	if err != nil {
		panic(err)
	}
	return r
}

// SchemaFor returns the resource registered under name.
func (r *Registry) SchemaFor(name string) (*Resource, error) {
	res, ok := r.resources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}
	return res, nil
}

// AllResources returns all registered resources in registration order.
func (r *Registry) AllResources() []*Resource {
	out := make([]*Resource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.resources[name])
	}
	return out
}

// Names returns the registered tags sorted alphabetically.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}
