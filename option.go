package combine

import (
	"fmt"

	"github.com/go-sif/combine/coder"
)

// DefaultBufferSize is the number of values a SimpleCombineFn buffers before
// reducing them to one
const DefaultBufferSize = 20

// An Option configures a combine transform
type Option func(*options)

type options struct {
	name            string
	accCoder        interface{}
	outCoder        interface{}
	withoutDefaults bool
	bufferSize      int
	hotKeySpread    int
}

func newOptions(name string, opts []Option) *options {
	o := &options{name: name, bufferSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// step returns options for a step of the transform configured by o, with
// the given coders in place of any configured ones
func (o *options) step(name string, accCoder interface{}, outCoder interface{}) *options {
	return &options{
		name:            o.name + "/" + name,
		accCoder:        accCoder,
		outCoder:        outCoder,
		withoutDefaults: o.withoutDefaults,
		bufferSize:      o.bufferSize,
	}
}

// WithName overrides the name of the transform, as used in logs and errors
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithAccumulatorCoder supplies the accumulator coder of a transform, so that
// it need not be inferred
func WithAccumulatorCoder[VA any](c coder.Coder[VA]) Option {
	return func(o *options) { o.accCoder = c }
}

// WithOutputCoder supplies the output coder of a transform, so that it need
// not be inferred
func WithOutputCoder[VO any](c coder.Coder[VO]) Option {
	return func(o *options) { o.outCoder = c }
}

// WithoutDefaults configures Globally to emit nothing for an empty window,
// rather than the output of the combiner over no inputs. It is required when
// the input is not globally windowed.
func WithoutDefaults() Option {
	return func(o *options) { o.withoutDefaults = true }
}

// WithBufferSize configures the number of values the Simple* transforms
// buffer before reducing them
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithHotKeySpread configures PerKeyWithHotKeys to shard every key over n
// intermediate keys
func WithHotKeySpread(n int) Option {
	return func(o *options) { o.hotKeySpread = n }
}

// accumulatorCoder returns the configured accumulator coder, if one was given
func accumulatorCoder[VA any](o *options) (coder.Coder[VA], bool, error) {
	return typedCoder[VA](o.accCoder, "accumulator")
}

// outputCoder returns the configured output coder, if one was given
func outputCoder[VO any](o *options) (coder.Coder[VO], bool, error) {
	return typedCoder[VO](o.outCoder, "output")
}

func typedCoder[T any](c interface{}, what string) (coder.Coder[T], bool, error) {
	if c == nil {
		return nil, false, nil
	}
	tc, ok := c.(coder.Coder[T])
	if !ok {
		return nil, false, fmt.Errorf("Configured %s coder %T does not encode %s", what, c, coder.TypeName[T]())
	}
	return tc, true, nil
}
