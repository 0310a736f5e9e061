// Package coder defines the narrow serialization contract the combine core
// requires: a Coder turns values into bytes and back, so that accumulators,
// keys and values can cross the shuffle boundary between workers.
//
// Coders append to and consume from byte slices, in the manner of protowire,
// so that structured coders (KV, Iterable) compose without intermediate
// buffers.
package coder

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// A Coder encodes and decodes values of a single type
type Coder[T any] interface {
	Encode(buf []byte, v T) ([]byte, error) // Encode appends the encoding of v to buf
	Decode(buf []byte) (T, int, error)      // Decode consumes one value from the front of buf, returning the number of bytes read
}

// KVComponents is implemented by coders for key/value pairs, exposing the
// coders of their components
type KVComponents[K, V any] interface {
	KeyCoder() Coder[K]   // KeyCoder returns the coder for keys
	ValueCoder() Coder[V] // ValueCoder returns the coder for values
}

// IterableComponents is implemented by coders for sequences, exposing the
// coder of their elements
type IterableComponents[T any] interface {
	ElemCoder() Coder[T] // ElemCoder returns the coder for individual elements
}

// TruncatedError occurs when a buffer ends before a complete value could be decoded
type TruncatedError struct {
	What string
	Code int
}

// Error returns a textual representation of this TruncatedError
func (e TruncatedError) Error() string {
	return fmt.Sprintf("Unable to decode %s: %v", e.What, protowire.ParseError(e.Code))
}

// Marshal encodes a single value into a new byte slice
func Marshal[T any](c Coder[T], v T) ([]byte, error) {
	return c.Encode(nil, v)
}

// Unmarshal decodes a single value which must span the whole of buf
func Unmarshal[T any](c Coder[T], buf []byte) (T, error) {
	v, n, err := c.Decode(buf)
	if err != nil {
		return v, err
	}
	if n != len(buf) {
		var zero T
		return zero, fmt.Errorf("Unable to decode value: %d trailing bytes", len(buf)-n)
	}
	return v, nil
}
