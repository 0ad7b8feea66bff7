package extension

import (
	"fmt"
	"reflect"

	"github.com/viant/x"
)

// Types is a registry of component data types keyed by pkgPath.Name.
type Types struct {
	x.Registry
}

// Register adds a data type to the registry
func (t *Types) Register(dataType *x.Type) {
	t.Registry.Register(dataType)
}

// RegisterType registers a Go type; pointer types are dereferenced.
func (t *Types) RegisterType(rType reflect.Type) *x.Type {
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	dataType := x.NewType(rType)
	t.Register(dataType)
	return dataType
}

// Lookup returns a data type from the registry
func (t *Types) Lookup(pkgPath, name string) *x.Type {
	return t.Registry.Lookup(Key(pkgPath, name))
}

// Key returns the registry key of a type.
func Key(pkgPath, name string) string {
	if pkgPath == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", pkgPath, name)
}

// NewTypes creates a new types
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{
		Registry: *x.NewRegistry(options...),
	}
}
