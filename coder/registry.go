package coder

import (
	"reflect"
	"sync"

	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/typex"
)

// A Registry maps Go types to default Coders. It is consulted when a
// transform must derive a coder for an accumulator or output type that the
// caller did not supply explicitly.
type Registry struct {
	lock   sync.RWMutex
	coders map[reflect.Type]interface{}
}

// NewRegistry produces a Registry populated with coders for builtin types
func NewRegistry() *Registry {
	r := &Registry{coders: make(map[reflect.Type]interface{})}
	Register(r, Int())
	Register(r, Int32())
	Register(r, Int64())
	Register(r, Uint64())
	Register(r, Float32())
	Register(r, Float64())
	Register(r, Bool())
	Register(r, String())
	Register(r, Bytes())
	Register(r, Unit())
	Register[typex.KV[typex.Unit, typex.Unit]](r, KV(Unit(), Unit()))
	return r
}

// Register configures c as the default Coder for T, replacing any previous registration
func Register[T any](r *Registry, c Coder[T]) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.coders[typeOf[T]()] = c
}

// Lookup returns the default Coder for T, or a CoderInferenceError if none is registered
func Lookup[T any](r *Registry) (Coder[T], error) {
	t := typeOf[T]()
	if r == nil {
		return nil, errors.CoderInferenceError{Type: t.String()}
	}
	r.lock.RLock()
	defer r.lock.RUnlock()
	c, ok := r.coders[t]
	if !ok {
		return nil, errors.CoderInferenceError{Type: t.String()}
	}
	return c.(Coder[T]), nil
}

// LookupKV returns a KV Coder built from the default coders of K and V
func LookupKV[K, V any](r *Registry) (*KVCoder[K, V], error) {
	kc, err := Lookup[K](r)
	if err != nil {
		return nil, err
	}
	vc, err := Lookup[V](r)
	if err != nil {
		return nil, err
	}
	return KV(kc, vc), nil
}

// Has returns true iff a Coder for T is registered
func Has[T any](r *Registry) bool {
	_, err := Lookup[T](r)
	return err == nil
}

// TypeName returns the name of T, as used in CoderInferenceErrors
func TypeName[T any]() string {
	return typeOf[T]().String()
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
