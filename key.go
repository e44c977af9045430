package ctxcomp

import (
	"fmt"
	"reflect"
)

// AnyKey is the type-erased view of a Key. It is implemented only by the key types of this
// package, which is what the unexported identity method enforces.
type AnyKey interface {
	// ID returns the string id of the key.
	ID() string
	// Type returns the component type the key addresses.
	Type() reflect.Type

	identity() keyIdentity
}

// keyIdentity is what the registry actually indexes on. Two keys address the same slot iff
// both the type and the id match.
type keyIdentity struct {
	typ reflect.Type
	id  string
}

// Key addresses a component slot of type T. Keys are immutable and are normally created once
// as package level variables by the code that owns the component:
//
//	var SerializerKey = ctxcomp.NewKey[Serializer]()
//
// Keys are comparable: two keys are == iff they address the same slot. The zero Key is the same
// key as NewKey[T]().
type Key[T any] struct {
	id string // empty for the default id, so that every spelling of it compares equal
}

// NewKey returns a key for T whose id is the fully-qualified name of T, for example
// "github.com/acme/app/render.Renderer".
func NewKey[T any]() Key[T] {
	return Key[T]{}
}

// NewKeyWithID returns a key for T with an explicit id. This allows multiple slots of the same
// type. An empty id, or the type name itself, gives the same key as NewKey.
func NewKeyWithID[T any](id string) Key[T] {
	if id == canonicalTypeName(typeOf[T]()) {
		id = ""
	}
	return Key[T]{id: id}
}

// ID returns the id of the key.
func (k Key[T]) ID() string {
	if k.id == "" {
		return canonicalTypeName(typeOf[T]())
	}
	return k.id
}

// Type returns the reflect.Type of the component.
func (k Key[T]) Type() reflect.Type {
	return typeOf[T]()
}

// String reports the id and the component type.
func (k Key[T]) String() string {
	return fmt.Sprintf("%s (%v)", k.ID(), k.Type())
}

func (k Key[T]) identity() keyIdentity {
	return keyIdentity{typ: k.Type(), id: k.ID()}
}
