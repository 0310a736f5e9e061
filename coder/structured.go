package coder

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/go-sif/combine/typex"
	"google.golang.org/protobuf/encoding/protowire"
)

// maxZeroWidthElements bounds the length of an iterable which is longer than
// its encoding, so that a corrupt length cannot stall Decode
const maxZeroWidthElements = 1 << 24

// KVCoder encodes a typex.KV as its key followed by its value
type KVCoder[K, V any] struct {
	key   Coder[K]
	value Coder[V]
}

// KV returns a Coder for typex.KV built from coders for its components
func KV[K, V any](key Coder[K], value Coder[V]) *KVCoder[K, V] {
	return &KVCoder[K, V]{key: key, value: value}
}

// KeyCoder returns the coder for keys
func (c *KVCoder[K, V]) KeyCoder() Coder[K] {
	return c.key
}

// ValueCoder returns the coder for values
func (c *KVCoder[K, V]) ValueCoder() Coder[V] {
	return c.value
}

// Encode appends the encoding of kv to buf
func (c *KVCoder[K, V]) Encode(buf []byte, kv typex.KV[K, V]) ([]byte, error) {
	buf, err := c.key.Encode(buf, kv.Key)
	if err != nil {
		return nil, err
	}
	return c.value.Encode(buf, kv.Value)
}

// Decode consumes one KV from the front of buf
func (c *KVCoder[K, V]) Decode(buf []byte) (typex.KV[K, V], int, error) {
	var kv typex.KV[K, V]
	k, n, err := c.key.Decode(buf)
	if err != nil {
		return kv, 0, err
	}
	v, m, err := c.value.Decode(buf[n:])
	if err != nil {
		return kv, 0, err
	}
	kv.Key = k
	kv.Value = v
	return kv, n + m, nil
}

// IterableCoder encodes a slice as a varint length followed by each element
type IterableCoder[T any] struct {
	elem Coder[T]
}

// Iterable returns a Coder for slices of T
func Iterable[T any](elem Coder[T]) *IterableCoder[T] {
	return &IterableCoder[T]{elem: elem}
}

// ElemCoder returns the coder for individual elements
func (c *IterableCoder[T]) ElemCoder() Coder[T] {
	return c.elem
}

// Encode appends the encoding of vs to buf
func (c *IterableCoder[T]) Encode(buf []byte, vs []T) ([]byte, error) {
	buf = protowire.AppendVarint(buf, uint64(len(vs)))
	var err error
	for _, v := range vs {
		buf, err = c.elem.Encode(buf, v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Decode consumes one slice from the front of buf
func (c *IterableCoder[T]) Decode(buf []byte) ([]T, int, error) {
	size, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return nil, 0, TruncatedError{What: "iterable length", Code: n}
	}
	// zero-width elements are legal, so the length only bounds the initial capacity
	capacity := size
	if capacity > uint64(len(buf)) {
		capacity = uint64(len(buf))
	}
	if size > capacity && size > maxZeroWidthElements {
		return nil, 0, fmt.Errorf("Iterable length %d exceeds the %d remaining bytes and the limit of %d zero-width elements", size, len(buf)-n, maxZeroWidthElements)
	}
	vs := make([]T, 0, capacity)
	for i := uint64(0); i < size; i++ {
		v, m, err := c.elem.Decode(buf[n:])
		if err != nil {
			return nil, 0, err
		}
		n += m
		vs = append(vs, v)
	}
	return vs, n, nil
}

// DelegateCoder encodes a T by converting it to a U and encoding that
type DelegateCoder[T, U any] struct {
	inner Coder[U]
	to    func(T) (U, error)
	from  func(U) (T, error)
}

// Delegate returns a Coder for T which converts values to and from U, and uses inner to encode them
func Delegate[T, U any](inner Coder[U], to func(T) (U, error), from func(U) (T, error)) *DelegateCoder[T, U] {
	return &DelegateCoder[T, U]{inner: inner, to: to, from: from}
}

// Encode appends the encoding of v to buf
func (c *DelegateCoder[T, U]) Encode(buf []byte, v T) ([]byte, error) {
	u, err := c.to(v)
	if err != nil {
		return nil, err
	}
	return c.inner.Encode(buf, u)
}

// Decode consumes one value from the front of buf
func (c *DelegateCoder[T, U]) Decode(buf []byte) (T, int, error) {
	u, n, err := c.inner.Decode(buf)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	v, err := c.from(u)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	return v, n, nil
}

type gobCoder[T any] struct{}

// Gob returns a length-prefixed Coder which uses encoding/gob. It can encode
// most exported Go types, and is intended as an explicit fallback when no
// purpose-built coder exists.
func Gob[T any]() Coder[T] { return gobCoder[T]{} }

func (gobCoder[T]) Encode(buf []byte, v T) ([]byte, error) {
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(&v); err != nil {
		return nil, err
	}
	return protowire.AppendBytes(buf, b.Bytes()), nil
}

func (gobCoder[T]) Decode(buf []byte) (T, int, error) {
	var v T
	b, n := protowire.ConsumeBytes(buf)
	if n < 0 {
		return v, 0, TruncatedError{What: "gob", Code: n}
	}
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		return v, 0, err
	}
	return v, n, nil
}
