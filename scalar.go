package combine

import (
	"fmt"

	"github.com/go-sif/combine/coder"
)

// Scalar is the set of primitive types with a fixed-width accumulator
type Scalar interface {
	~int32 | ~int64 | ~float64
}

// Cell is the accumulator of a ScalarCombineFn, a single mutable value
type Cell[V Scalar] struct {
	Value V
}

func (c *Cell[V]) String() string {
	return fmt.Sprintf("Cell(%v)", c.Value)
}

// ScalarCombineFn reduces primitive values with an associative, commutative
// binary operator. Unlike BinaryCombineFn the identity is mandatory: every
// accumulator starts out holding it, so there is no empty state.
type ScalarCombineFn[V Scalar] struct {
	op       func(a, b V) V
	identity V
	accCoder coder.Coder[V]
	outCoder coder.Coder[V]
}

// Int32s returns a ScalarCombineFn over int32
func Int32s(op func(a, b int32) int32, identity int32) *ScalarCombineFn[int32] {
	return &ScalarCombineFn[int32]{op: op, identity: identity, accCoder: coder.FixedInt32(), outCoder: coder.Int32()}
}

// Int64s returns a ScalarCombineFn over int64
func Int64s(op func(a, b int64) int64, identity int64) *ScalarCombineFn[int64] {
	return &ScalarCombineFn[int64]{op: op, identity: identity, accCoder: coder.FixedInt64(), outCoder: coder.Int64()}
}

// Float64s returns a ScalarCombineFn over float64
func Float64s(op func(a, b float64) float64, identity float64) *ScalarCombineFn[float64] {
	return &ScalarCombineFn[float64]{op: op, identity: identity, accCoder: coder.Float64(), outCoder: coder.Float64()}
}

// Apply applies the binary operator directly
func (f *ScalarCombineFn[V]) Apply(a, b V) V {
	return f.op(a, b)
}

// Identity returns the identity of the binary operator
func (f *ScalarCombineFn[V]) Identity() V {
	return f.identity
}

// CreateAccumulator returns a Cell holding the identity
func (f *ScalarCombineFn[V]) CreateAccumulator() *Cell[V] {
	return &Cell[V]{Value: f.identity}
}

// AddInput combines input into acc
func (f *ScalarCombineFn[V]) AddInput(acc *Cell[V], input V) error {
	acc.Value = f.op(acc.Value, input)
	return nil
}

// MergeAccumulators combines every one of accs into the first
func (f *ScalarCombineFn[V]) MergeAccumulators(accs []*Cell[V]) (*Cell[V], error) {
	result := accs[0]
	for _, acc := range accs[1:] {
		result.Value = f.op(result.Value, acc.Value)
	}
	return result, nil
}

// ExtractOutput returns the value held by acc
func (f *ScalarCombineFn[V]) ExtractOutput(acc *Cell[V]) (V, error) {
	return acc.Value, nil
}

// AccumulatorCoder returns a fixed-width Coder for Cells
func (f *ScalarCombineFn[V]) AccumulatorCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[*Cell[V]], error) {
	return coder.Delegate(f.accCoder,
		func(c *Cell[V]) (V, error) { return c.Value, nil },
		func(v V) (*Cell[V], error) { return &Cell[V]{Value: v}, nil },
	), nil
}

// OutputCoder returns the default Coder for V
func (f *ScalarCombineFn[V]) OutputCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[V], error) {
	return f.outCoder, nil
}
