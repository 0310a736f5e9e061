package combine

import (
	"context"
	"fmt"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
	"github.com/go-sif/combine/window"
)

// PerKey combines the values of each key and window of col with fn. Each
// output is in the window of its key's values and is timestamped at the end
// of that window. col must have a KV coder.
//
// When an accumulator coder is available, values are combined before they
// are grouped (see pipeline.Options.DisableLifting). WithHotKeySpread shards
// every key over several intermediate keys, as PerKeyWithHotKeys does.
func PerKey[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn CombineFn[VI, VA, VO], opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	return KeyedPerKey(col, AsKeyedFn[K](fn), opts...)
}

// KeyedPerKey is PerKey for a KeyedCombineFn
func KeyedPerKey[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn KeyedCombineFn[K, VI, VA, VO], opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	o := newOptions("Combine.PerKey", opts)
	if o.hotKeySpread > 1 {
		n := o.hotKeySpread
		return perKeyWithHotKeys(col, fn, func(K) int { return n }, o)
	}
	return perKey(col, fn, o)
}

// kvCoders returns the key and value coders of col, which must have a KV coder
func kvCoders[K, V any](transform string, col *pipeline.Collection[typex.KV[K, V]]) (coder.Coder[K], coder.Coder[V], error) {
	kvc, ok := col.Coder().(coder.KVComponents[K, V])
	if !ok {
		return nil, nil, errors.ConfigurationError{
			Transform:  transform,
			Problem:    fmt.Sprintf("%s must have a KV coder, but has %T", col, col.Coder()),
			Suggestion: "set a KV coder on the input with SetCoder",
		}
	}
	return kvc.KeyCoder(), kvc.ValueCoder(), nil
}

// accumulatorCoderFor returns the configured accumulator coder, or derives one from fn
func accumulatorCoderFor[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], o *options, reg *coder.Registry, kc coder.Coder[K], vc coder.Coder[VI]) (coder.Coder[VA], error) {
	c, ok, err := accumulatorCoder[VA](o)
	if err != nil || ok {
		return c, err
	}
	c, err = KeyedAccumulatorCoder(fn, reg, kc, vc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}
	return c, nil
}

// outputCoderFor returns the configured output coder, or derives one from fn
func outputCoderFor[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], o *options, reg *coder.Registry, kc coder.Coder[K], vc coder.Coder[VI]) (coder.Coder[VO], error) {
	c, ok, err := outputCoder[VO](o)
	if err != nil || ok {
		return c, err
	}
	c, err = KeyedOutputCoder(fn, reg, kc, vc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", o.name, err)
	}
	return c, nil
}

func perKey[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn KeyedCombineFn[K, VI, VA, VO], o *options) (*pipeline.Collection[typex.KV[K, VO]], error) {
	p := col.Pipeline()
	kc, vc, err := kvCoders(o.name, col)
	if err != nil {
		return nil, err
	}
	outCoder, err := outputCoderFor(fn, o, p.Registry(), kc, vc)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if !p.Options().DisableLifting {
		accCoder, err := accumulatorCoderFor(fn, o, p.Registry(), kc, vc)
		if err == nil {
			p.Logger().Debugf(ctx, "%s: combining values before grouping", o.name)
			return liftedPerKey(col, fn, o, kc, accCoder, outCoder)
		}
		p.Logger().Warnf(ctx, "%s: grouping all values before combining them, as accumulators cannot be encoded: %v", o.name, err)
	}
	grouped, err := pipeline.GroupByKey(col)
	if err != nil {
		return nil, err
	}
	return groupedValues(grouped, fn, o.step("GroupedValues", nil, outCoder))
}

// liftedPerKey combines the values of each bundle, groups the encoded
// accumulators, merges them and extracts the output
func liftedPerKey[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn KeyedCombineFn[K, VI, VA, VO], o *options, kc coder.Coder[K], accCoder coder.Coder[VA], outCoder coder.Coder[VO]) (*pipeline.Collection[typex.KV[K, VO]], error) {
	pre := pipeline.ParDo(o.name+"/PreCombine", col, func() pipeline.DoFn[typex.KV[K, VI], typex.KV[K, VA]] {
		return newPreCombineFn(fn, kc)
	}, coder.Coder[typex.KV[K, VA]](coder.KV(kc, accCoder)))
	grouped, err := pipeline.GroupByKey(pre)
	if err != nil {
		return nil, err
	}
	fanIn := col.Pipeline().Options().MergeFanIn
	return pipeline.ParDo(o.name+"/MergeAndExtract", grouped, func() pipeline.DoFn[typex.KV[K, []VA], typex.KV[K, VO]] {
		return &mergeExtractFn[K, VI, VA, VO]{fn: fn, fanIn: fanIn}
	}, coder.Coder[typex.KV[K, VO]](coder.KV(kc, outCoder))), nil
}

// preCombineEntry is the accumulator of one key and window within a bundle
type preCombineEntry[K, VA any] struct {
	key    K
	window window.Window
	acc    VA
}

// preCombineFn accumulates the values of a bundle by key and window,
// emitting one accumulator per key and window when the bundle is finished
type preCombineFn[K, VI, VA, VO any] struct {
	fn      KeyedCombineFn[K, VI, VA, VO]
	kc      coder.Coder[K]
	index   map[string]int
	entries []*preCombineEntry[K, VA]
	buf     []byte
}

func newPreCombineFn[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], kc coder.Coder[K]) *preCombineFn[K, VI, VA, VO] {
	return &preCombineFn[K, VI, VA, VO]{fn: fn, kc: kc, index: make(map[string]int)}
}

func (f *preCombineFn[K, VI, VA, VO]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[typex.KV[K, VI]], _ func(typex.KV[K, VA])) error {
	buf, err := window.Encode(f.buf[:0], elm.Window)
	if err != nil {
		return err
	}
	if buf, err = f.kc.Encode(buf, elm.Elm.Key); err != nil {
		return err
	}
	f.buf = buf
	i, ok := f.index[string(buf)]
	if !ok {
		i = len(f.entries)
		f.index[string(buf)] = i
		f.entries = append(f.entries, &preCombineEntry[K, VA]{
			key:    elm.Elm.Key,
			window: elm.Window,
			acc:    f.fn.CreateAccumulator(elm.Elm.Key),
		})
	}
	return f.fn.AddInput(elm.Elm.Key, f.entries[i].acc, elm.Elm.Value)
}

func (f *preCombineFn[K, VI, VA, VO]) FinishBundle(_ context.Context, emit func(pipeline.WindowedValue[typex.KV[K, VA]])) error {
	for _, e := range f.entries {
		emit(pipeline.WindowedValue[typex.KV[K, VA]]{
			Elm:       typex.NewKV(e.key, e.acc),
			Timestamp: e.window.MaxTimestamp(),
			Window:    e.window,
		})
	}
	f.entries = nil
	f.index = nil
	return nil
}

// mergeExtractFn merges the grouped accumulators of each key and extracts its output
type mergeExtractFn[K, VI, VA, VO any] struct {
	fn    KeyedCombineFn[K, VI, VA, VO]
	fanIn int
}

func (f *mergeExtractFn[K, VI, VA, VO]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[typex.KV[K, []VA]], emit func(typex.KV[K, VO])) error {
	acc, err := mergeTree(f.fn, elm.Elm.Key, elm.Elm.Value, f.fanIn)
	if err != nil {
		return err
	}
	out, err := f.fn.ExtractOutput(elm.Elm.Key, acc)
	if err != nil {
		return err
	}
	emit(typex.NewKV(elm.Elm.Key, out))
	return nil
}

// mergeTree merges accs in levels, never passing more than fanIn
// accumulators to a single MergeAccumulators call
func mergeTree[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], key K, accs []VA, fanIn int) (VA, error) {
	if fanIn < 2 {
		fanIn = 2
	}
	for len(accs) > fanIn {
		next := make([]VA, 0, (len(accs)+fanIn-1)/fanIn)
		for start := 0; start < len(accs); start += fanIn {
			end := start + fanIn
			if end > len(accs) {
				end = len(accs)
			}
			merged, err := mergeKeyedOrCreate(fn, key, accs[start:end])
			if err != nil {
				var zero VA
				return zero, err
			}
			next = append(next, merged)
		}
		accs = next
	}
	return mergeKeyedOrCreate(fn, key, accs)
}
