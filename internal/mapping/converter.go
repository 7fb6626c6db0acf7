package mapping

import "reflect"

// Converter customizes the document representation of one Go type.
// ToDocument receives the entity field value and returns a
// JSON-marshalable replacement; FromDocument receives the decoded JSON
// value (string, float64, bool, map, slice) and returns a value
// assignable to the entity field.
type Converter interface {
	ToDocument(value any) (any, error)
	FromDocument(value any) (any, error)
}

// Registry holds custom converters keyed by Go type.
type Registry struct {
	byType map[reflect.Type]Converter
}

// NewRegistry creates an empty converter registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type]Converter)}
}

// Register installs a converter for the given type, replacing any
// previous registration.
func (r *Registry) Register(t reflect.Type, c Converter) {
	r.byType[t] = c
}

// Lookup returns the converter registered for t.
func (r *Registry) Lookup(t reflect.Type) (Converter, bool) {
	c, ok := r.byType[t]
	return c, ok
}
