// Package typex contains the small value types shared by coders, windows,
// the pipeline and the combine transforms.
package typex

import "fmt"

// KV is a key/value pair. Collections of KV are the input to every keyed
// transform.
type KV[K, V any] struct {
	Key   K
	Value V
}

// NewKV returns a KV holding k and v
func NewKV[K, V any](k K, v V) KV[K, V] {
	return KV[K, V]{Key: k, Value: v}
}

// String returns a textual representation of this KV
func (kv KV[K, V]) String() string {
	return fmt.Sprintf("(%v, %v)", kv.Key, kv.Value)
}

// Unit is the single-valued type. It is used as the synthetic key of a
// global combine and as the element type of an impulse.
type Unit struct{}
