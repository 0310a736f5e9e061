package combine

import (
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
)

// Buffer is the accumulator of a SimpleCombineFn, an ordered sequence of values
// which have not yet been reduced together
type Buffer[V any] struct {
	Values []V
}

// SimpleCombineFn turns a function which reduces a slice of values to one value
// into a CombineFn. Values are buffered and reduced whenever the buffer grows
// beyond a threshold, bounding memory use for very large inputs. reduce must
// be associative and commutative.
type SimpleCombineFn[V any] struct {
	reduce    func([]V) (V, error)
	threshold int
}

// Simple returns a SimpleCombineFn for reduce, which buffers DefaultBufferSize values
func Simple[V any](reduce func([]V) (V, error)) *SimpleCombineFn[V] {
	return SimpleWithBuffer(reduce, DefaultBufferSize)
}

// SimpleWithBuffer returns a SimpleCombineFn for reduce, which buffers threshold values
func SimpleWithBuffer[V any](reduce func([]V) (V, error), threshold int) *SimpleCombineFn[V] {
	if threshold < 1 {
		threshold = 1
	}
	return &SimpleCombineFn[V]{reduce: reduce, threshold: threshold}
}

// Threshold returns the number of values buffered before they are reduced
func (f *SimpleCombineFn[V]) Threshold() int {
	return f.threshold
}

// CreateAccumulator returns an empty Buffer
func (f *SimpleCombineFn[V]) CreateAccumulator() *Buffer[V] {
	return &Buffer[V]{}
}

// AddInput appends input to acc, collapsing acc to a single value once it
// holds more than the threshold
func (f *SimpleCombineFn[V]) AddInput(acc *Buffer[V], input V) error {
	acc.Values = append(acc.Values, input)
	if len(acc.Values) > f.threshold {
		return f.collapse(acc)
	}
	return nil
}

// MergeAccumulators concatenates accs and reduces the result to a single value
func (f *SimpleCombineFn[V]) MergeAccumulators(accs []*Buffer[V]) (*Buffer[V], error) {
	result := f.CreateAccumulator()
	for _, acc := range accs {
		result.Values = append(result.Values, acc.Values...)
	}
	if err := f.collapse(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExtractOutput reduces the values remaining in acc
func (f *SimpleCombineFn[V]) ExtractOutput(acc *Buffer[V]) (V, error) {
	return f.reduce(acc.Values)
}

func (f *SimpleCombineFn[V]) collapse(acc *Buffer[V]) error {
	v, err := f.reduce(acc.Values)
	if err != nil {
		return err
	}
	acc.Values = append(acc.Values[:0], v)
	return nil
}

// AccumulatorCoder encodes a Buffer as an iterable of the input coder
func (f *SimpleCombineFn[V]) AccumulatorCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[*Buffer[V]], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[*Buffer[V]]()}
	}
	return coder.Delegate[*Buffer[V], []V](coder.Iterable(in),
		func(b *Buffer[V]) ([]V, error) { return b.Values, nil },
		func(vs []V) (*Buffer[V], error) { return &Buffer[V]{Values: vs}, nil },
	), nil
}

// OutputCoder returns the input coder
func (f *SimpleCombineFn[V]) OutputCoder(_ *coder.Registry, in coder.Coder[V]) (coder.Coder[V], error) {
	if in == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[V]()}
	}
	return in, nil
}

// SimpleGlobally is Globally for a function which reduces a slice of values
// to one. WithBufferSize configures how many values are buffered.
func SimpleGlobally[V any](col *pipeline.Collection[V], reduce func([]V) (V, error), opts ...Option) (*pipeline.Collection[V], error) {
	fn := SimpleWithBuffer(reduce, newOptions("", opts).bufferSize)
	return Globally[V, *Buffer[V], V](col, fn, opts...)
}

// SimplePerKey is PerKey for a function which reduces a slice of values to one
func SimplePerKey[K, V any](col *pipeline.Collection[typex.KV[K, V]], reduce func([]V) (V, error), opts ...Option) (*pipeline.Collection[typex.KV[K, V]], error) {
	fn := SimpleWithBuffer(reduce, newOptions("", opts).bufferSize)
	return PerKey[K, V, *Buffer[V], V](col, fn, opts...)
}

// SimpleGroupedValues is GroupedValues for a function which reduces a slice of values to one
func SimpleGroupedValues[K, V any](col *pipeline.Collection[typex.KV[K, []V]], reduce func([]V) (V, error), opts ...Option) (*pipeline.Collection[typex.KV[K, V]], error) {
	fn := SimpleWithBuffer(reduce, newOptions("", opts).bufferSize)
	return GroupedValues[K, V, *Buffer[V], V](col, fn, opts...)
}
