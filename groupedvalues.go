package combine

import (
	"context"
	"fmt"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
)

// GroupedValues combines the values of each (key, values) pair of col with
// fn, as produced by pipeline.GroupByKey. col must have a KV coder whose
// value coder encodes an iterable.
func GroupedValues[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, []VI]], fn CombineFn[VI, VA, VO], opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	return KeyedGroupedValues(col, AsKeyedFn[K](fn), opts...)
}

// KeyedGroupedValues is GroupedValues for a KeyedCombineFn
func KeyedGroupedValues[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, []VI]], fn KeyedCombineFn[K, VI, VA, VO], opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	return groupedValues(col, fn, newOptions("Combine.GroupedValues", opts))
}

// GroupedValuesAccumulatorCoder derives the accumulator coder fn would use to
// combine the (key, values) pairs of col
func GroupedValuesAccumulatorCoder[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, []VI]], fn KeyedCombineFn[K, VI, VA, VO]) (coder.Coder[VA], error) {
	kc, ec, err := groupedCoders("Combine.GroupedValues", col)
	if err != nil {
		return nil, err
	}
	return KeyedAccumulatorCoder(fn, col.Pipeline().Registry(), kc, ec)
}

// groupedCoders returns the key coder and value element coder of col
func groupedCoders[K, VI any](transform string, col *pipeline.Collection[typex.KV[K, []VI]]) (coder.Coder[K], coder.Coder[VI], error) {
	kc, vc, err := kvCoders(transform, col)
	if err != nil {
		return nil, nil, err
	}
	ic, ok := vc.(coder.IterableComponents[VI])
	if !ok {
		return nil, nil, errors.ConfigurationError{
			Transform:  transform,
			Problem:    fmt.Sprintf("%s must have a KV coder whose values are iterable, but its value coder is %T", col, vc),
			Suggestion: "apply GroupByKey first, or use PerKey to group and combine together",
		}
	}
	return kc, ic.ElemCoder(), nil
}

func groupedValues[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, []VI]], fn KeyedCombineFn[K, VI, VA, VO], o *options) (*pipeline.Collection[typex.KV[K, VO]], error) {
	kc, ec, err := groupedCoders(o.name, col)
	if err != nil {
		return nil, err
	}
	outCoder, err := outputCoderFor(fn, o, col.Pipeline().Registry(), kc, ec)
	if err != nil {
		return nil, err
	}
	return pipeline.ParDo(o.name, col, func() pipeline.DoFn[typex.KV[K, []VI], typex.KV[K, VO]] {
		return &groupedValuesFn[K, VI, VA, VO]{fn: fn}
	}, coder.Coder[typex.KV[K, VO]](coder.KV(kc, outCoder))), nil
}

// groupedValuesFn applies a KeyedCombineFn to the values of each key
type groupedValuesFn[K, VI, VA, VO any] struct {
	fn KeyedCombineFn[K, VI, VA, VO]
}

func (g *groupedValuesFn[K, VI, VA, VO]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[typex.KV[K, []VI]], emit func(typex.KV[K, VO])) error {
	out, err := ApplyKeyed(g.fn, elm.Elm.Key, elm.Elm.Value)
	if err != nil {
		return err
	}
	emit(typex.NewKV(elm.Elm.Key, out))
	return nil
}
