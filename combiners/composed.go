package combiners

import (
	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/typex"
)

// Composed is the accumulator of Compose, holding one accumulator per composed CombineFn
type Composed[A1, A2 any] struct {
	First  A1
	Second A2
}

// Compose returns a CombineFn which applies two CombineFns to the same
// inputs, producing both of their outputs
func Compose[VI, A1, O1, A2, O2 any](first combine.CombineFn[VI, A1, O1], second combine.CombineFn[VI, A2, O2]) combine.CombineFn[VI, *Composed[A1, A2], typex.KV[O1, O2]] {
	return &composed[VI, A1, O1, A2, O2]{first: first, second: second}
}

type composed[VI, A1, O1, A2, O2 any] struct {
	first  combine.CombineFn[VI, A1, O1]
	second combine.CombineFn[VI, A2, O2]
}

func (c *composed[VI, A1, O1, A2, O2]) CreateAccumulator() *Composed[A1, A2] {
	return &Composed[A1, A2]{First: c.first.CreateAccumulator(), Second: c.second.CreateAccumulator()}
}

func (c *composed[VI, A1, O1, A2, O2]) AddInput(acc *Composed[A1, A2], input VI) error {
	if err := c.first.AddInput(acc.First, input); err != nil {
		return err
	}
	return c.second.AddInput(acc.Second, input)
}

func (c *composed[VI, A1, O1, A2, O2]) MergeAccumulators(accs []*Composed[A1, A2]) (*Composed[A1, A2], error) {
	firsts := make([]A1, len(accs))
	seconds := make([]A2, len(accs))
	for i, a := range accs {
		firsts[i] = a.First
		seconds[i] = a.Second
	}
	first, err := c.first.MergeAccumulators(firsts)
	if err != nil {
		return nil, err
	}
	second, err := c.second.MergeAccumulators(seconds)
	if err != nil {
		return nil, err
	}
	return &Composed[A1, A2]{First: first, Second: second}, nil
}

func (c *composed[VI, A1, O1, A2, O2]) ExtractOutput(acc *Composed[A1, A2]) (typex.KV[O1, O2], error) {
	first, err := c.first.ExtractOutput(acc.First)
	if err != nil {
		return typex.KV[O1, O2]{}, err
	}
	second, err := c.second.ExtractOutput(acc.Second)
	if err != nil {
		return typex.KV[O1, O2]{}, err
	}
	return typex.NewKV(first, second), nil
}

// AccumulatorCoder encodes both accumulators, if both of their coders can be derived
func (c *composed[VI, A1, O1, A2, O2]) AccumulatorCoder(reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[*Composed[A1, A2]], error) {
	first, err := combine.AccumulatorCoder(c.first, reg, in)
	if err != nil {
		return nil, err
	}
	second, err := combine.AccumulatorCoder(c.second, reg, in)
	if err != nil {
		return nil, err
	}
	return coder.Delegate(coder.KV(first, second),
		func(a *Composed[A1, A2]) (typex.KV[A1, A2], error) { return typex.NewKV(a.First, a.Second), nil },
		func(kv typex.KV[A1, A2]) (*Composed[A1, A2], error) {
			return &Composed[A1, A2]{First: kv.Key, Second: kv.Value}, nil
		},
	), nil
}

// OutputCoder encodes both outputs as a KV, if both of their coders can be derived
func (c *composed[VI, A1, O1, A2, O2]) OutputCoder(reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[typex.KV[O1, O2]], error) {
	first, err := combine.OutputCoder(c.first, reg, in)
	if err != nil {
		return nil, err
	}
	second, err := combine.OutputCoder(c.second, reg, in)
	if err != nil {
		return nil, err
	}
	return coder.KV(first, second), nil
}
