// Package combiners contains ready-made CombineFns for common reductions.
//
// Constructors return combine.CombineFn values, so that the transforms of
// package combine can infer their type parameters:
//
//	sums, err := combine.PerKey(col, combiners.Adder[int64]())
package combiners

import (
	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
)

// Count is the accumulator of Counter
type Count struct {
	count int64
}

// GetCount returns the number of values counted by this Count
func (a *Count) GetCount() int64 {
	return a.count
}

// Counter returns a CombineFn which counts values
func Counter[V any]() combine.CombineFn[V, *Count, int64] {
	return counter[V]{}
}

type counter[V any] struct{}

func (counter[V]) CreateAccumulator() *Count {
	return new(Count)
}

func (counter[V]) AddInput(acc *Count, _ V) error {
	acc.count++
	return nil
}

func (counter[V]) MergeAccumulators(accs []*Count) (*Count, error) {
	result := accs[0]
	for _, a := range accs[1:] {
		result.count += a.count
	}
	return result, nil
}

func (counter[V]) ExtractOutput(acc *Count) (int64, error) {
	return acc.count, nil
}

func (counter[V]) AccumulatorCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[*Count], error) {
	return coder.Delegate(coder.FixedInt64(),
		func(c *Count) (int64, error) { return c.count, nil },
		func(n int64) (*Count, error) { return &Count{count: n}, nil },
	), nil
}

func (counter[V]) OutputCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[int64], error) {
	return coder.Int64(), nil
}
