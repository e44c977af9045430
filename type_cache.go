package ctxcomp

import (
	"reflect"
	"sync"
)

// typeNames caches canonical names of component types. Keys are created as package level
// variables for the most part, but parametrized and test keys get created repeatedly.
var typeNames sync.Map // map[reflect.Type]string

// typeOf returns the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// canonicalTypeName returns the fully-qualified name of a type, computing it if necessary.
func canonicalTypeName(t reflect.Type) string {
	if cached, ok := typeNames.Load(t); ok {
		return cached.(string)
	}
	name := computeTypeName(t)
	actual, _ := typeNames.LoadOrStore(t, name)
	return actual.(string)
}

func computeTypeName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			// Predeclared types like string or error.
			return t.Name()
		}
		return t.PkgPath() + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + computeTypeName(t.Elem())
	case reflect.Slice:
		return "[]" + computeTypeName(t.Elem())
	case reflect.Map:
		return "map[" + computeTypeName(t.Key()) + "]" + computeTypeName(t.Elem())
	default:
		// Unnamed funcs, structs and the like. The short form is unambiguous enough here.
		return t.String()
	}
}
