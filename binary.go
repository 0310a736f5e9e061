package combine

import (
	"fmt"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
)

// Holder is the accumulator of a BinaryCombineFn: a single slot which is
// either empty or holds the combination of every value added so far
type Holder[V any] struct {
	Value   V
	Present bool
}

// NewHolder returns a Holder containing v
func NewHolder[V any](v V) *Holder[V] {
	return &Holder[V]{Value: v, Present: true}
}

func (h *Holder[V]) String() string {
	if !h.Present {
		return "Holder(<empty>)"
	}
	return fmt.Sprintf("Holder(%v)", h.Value)
}

// BinaryCombineFn reduces values of V with an associative, commutative
// binary operator. A reduction of no values extracts the identity, if one
// was declared, and ErrNoIdentity otherwise.
type BinaryCombineFn[V any] struct {
	op          func(a, b V) (V, error)
	identity    V
	hasIdentity bool
}

// Binary returns a BinaryCombineFn for op which declares no identity
func Binary[V any](op func(a, b V) (V, error)) *BinaryCombineFn[V] {
	return &BinaryCombineFn[V]{op: op}
}

// BinaryWithIdentity returns a BinaryCombineFn for op which extracts identity
// from an empty reduction. op(identity, x) must equal x.
func BinaryWithIdentity[V any](op func(a, b V) (V, error), identity V) *BinaryCombineFn[V] {
	return &BinaryCombineFn[V]{op: op, identity: identity, hasIdentity: true}
}

// Identity returns the identity of this BinaryCombineFn, and whether one was declared
func (f *BinaryCombineFn[V]) Identity() (V, bool) {
	return f.identity, f.hasIdentity
}

// CreateAccumulator returns an empty Holder
func (f *BinaryCombineFn[V]) CreateAccumulator() *Holder[V] {
	return &Holder[V]{}
}

// AddInput stores input in an empty Holder, or combines it with the held value
func (f *BinaryCombineFn[V]) AddInput(acc *Holder[V], input V) error {
	if !acc.Present {
		acc.Value = input
		acc.Present = true
		return nil
	}
	v, err := f.op(acc.Value, input)
	if err != nil {
		return err
	}
	acc.Value = v
	return nil
}

// MergeAccumulators combines the values of every present Holder in accs. The
// result is empty iff every one of accs is empty.
func (f *BinaryCombineFn[V]) MergeAccumulators(accs []*Holder[V]) (*Holder[V], error) {
	result := f.CreateAccumulator()
	for _, acc := range accs {
		if !acc.Present {
			continue
		}
		if err := f.AddInput(result, acc.Value); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ExtractOutput returns the held value, or the identity if acc is empty
func (f *BinaryCombineFn[V]) ExtractOutput(acc *Holder[V]) (V, error) {
	if acc.Present {
		return acc.Value, nil
	}
	if f.hasIdentity {
		return f.identity, nil
	}
	var zero V
	return zero, errors.ErrNoIdentity
}

// AccumulatorCoder returns a HolderCoder around the input coder
func (f *BinaryCombineFn[V]) AccumulatorCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[*Holder[V]], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[*Holder[V]]()}
	}
	return HolderCoder(in), nil
}

// OutputCoder returns the input coder
func (f *BinaryCombineFn[V]) OutputCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[V], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[V]()}
	}
	return in, nil
}

// holderCoder encodes a Holder as a presence byte, followed by the held value if present
type holderCoder[V any] struct {
	value coder.Coder[V]
}

// HolderCoder returns a Coder for Holders of values encoded by value
func HolderCoder[V any](value coder.Coder[V]) coder.Coder[*Holder[V]] {
	return &holderCoder[V]{value: value}
}

func (c *holderCoder[V]) Encode(buf []byte, h *Holder[V]) ([]byte, error) {
	if !h.Present {
		return append(buf, 0), nil
	}
	return c.value.Encode(append(buf, 1), h.Value)
}

func (c *holderCoder[V]) Decode(buf []byte) (*Holder[V], int, error) {
	if len(buf) == 0 {
		return nil, 0, coder.TruncatedError{What: "holder", Code: -1}
	}
	if buf[0] == 0 {
		return &Holder[V]{}, 1, nil
	}
	v, n, err := c.value.Decode(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	return NewHolder(v), n + 1, nil
}
