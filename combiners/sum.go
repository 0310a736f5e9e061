package combiners

import (
	"fmt"

	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
)

// Number is the set of types which may be summed
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum is the accumulator of Adder
type Sum[V Number] struct {
	sum V
}

// GetSum returns the total of the values added to this Sum
func (a *Sum[V]) GetSum() V {
	return a.sum
}

// AddInput adds v to this Sum
func (a *Sum[V]) AddInput(v V) error {
	a.sum += v
	return nil
}

// MergeAccumulator adds the total of o to this Sum
func (a *Sum[V]) MergeAccumulator(o *Sum[V]) error {
	a.sum += o.sum
	return nil
}

// ExtractOutput returns the total of this Sum
func (a *Sum[V]) ExtractOutput() (V, error) {
	return a.sum, nil
}

func (a *Sum[V]) String() string {
	return fmt.Sprintf("Sum(%v)", a.sum)
}

// Adder returns a CombineFn which sums values. The sum of no values is 0.
func Adder[V Number]() combine.CombineFn[V, *Sum[V], V] {
	return &adder[V]{
		AccumulatingCombineFn: combine.Accumulating[V, *Sum[V], V](func() *Sum[V] { return &Sum[V]{} }),
	}
}

type adder[V Number] struct {
	*combine.AccumulatingCombineFn[V, *Sum[V], V]
}

// AccumulatorCoder encodes a Sum with the input coder
func (a *adder[V]) AccumulatorCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[*Sum[V]], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[*Sum[V]]()}
	}
	return coder.Delegate(in,
		func(s *Sum[V]) (V, error) { return s.sum, nil },
		func(v V) (*Sum[V], error) { return &Sum[V]{sum: v}, nil },
	), nil
}

// OutputCoder returns the input coder
func (a *adder[V]) OutputCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[V], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[V]()}
	}
	return in, nil
}
