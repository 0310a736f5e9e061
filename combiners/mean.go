package combiners

import (
	"math"

	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/typex"
)

// Mean is the accumulator of Averager, a running sum and count
type Mean struct {
	sum   float64
	count int64
}

// AddInput adds v to this Mean
func (m *Mean) AddInput(v float64) error {
	m.sum += v
	m.count++
	return nil
}

// MergeAccumulator merges the sum and count of o into this Mean
func (m *Mean) MergeAccumulator(o *Mean) error {
	m.sum += o.sum
	m.count += o.count
	return nil
}

// ExtractOutput returns the mean of the values added, or NaN if there were none
func (m *Mean) ExtractOutput() (float64, error) {
	if m.count == 0 {
		return math.NaN(), nil
	}
	return m.sum / float64(m.count), nil
}

// Averager returns a CombineFn which computes the arithmetic mean of values
func Averager[V Number]() combine.CombineFn[V, *Mean, float64] {
	return &averager[V]{
		fn: combine.Accumulating[float64, *Mean, float64](func() *Mean { return &Mean{} }),
	}
}

// averager converts inputs to float64 before handing them to Mean
type averager[V Number] struct {
	fn *combine.AccumulatingCombineFn[float64, *Mean, float64]
}

func (a *averager[V]) CreateAccumulator() *Mean {
	return a.fn.CreateAccumulator()
}

func (a *averager[V]) AddInput(acc *Mean, input V) error {
	return a.fn.AddInput(acc, float64(input))
}

func (a *averager[V]) MergeAccumulators(accs []*Mean) (*Mean, error) {
	return a.fn.MergeAccumulators(accs)
}

func (a *averager[V]) ExtractOutput(acc *Mean) (float64, error) {
	return a.fn.ExtractOutput(acc)
}

// AccumulatorCoder encodes a Mean as its sum followed by its count
func (a *averager[V]) AccumulatorCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[*Mean], error) {
	return coder.Delegate(coder.KV(coder.Float64(), coder.Int64()),
		func(m *Mean) (typex.KV[float64, int64], error) { return typex.NewKV(m.sum, m.count), nil },
		func(kv typex.KV[float64, int64]) (*Mean, error) { return &Mean{sum: kv.Key, count: kv.Value}, nil },
	), nil
}

func (a *averager[V]) OutputCoder(*coder.Registry, coder.Coder[V]) (coder.Coder[float64], error) {
	return coder.Float64(), nil
}
