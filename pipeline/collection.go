package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/typex"
	"github.com/go-sif/combine/window"
	"github.com/gofrs/uuid"
)

// WindowedValue is an element of a Collection, with its timestamp and window
type WindowedValue[T any] struct {
	Elm       T
	Timestamp time.Time
	Window    window.Window
}

func (wv WindowedValue[T]) String() string {
	return fmt.Sprintf("%v@%v%v", wv.Elm, wv.Timestamp.UnixMilli(), wv.Window)
}

// Collection is a lazily evaluated, immutable collection of windowed values
type Collection[T any] struct {
	p        *Pipeline
	id       uuid.UUID
	name     string
	coder    coder.Coder[T]
	strategy *window.Strategy
	eval     func(ctx context.Context) ([]WindowedValue[T], error)
	once     sync.Once
	values   []WindowedValue[T]
	err      error
}

func newCollection[T any](p *Pipeline, name string, c coder.Coder[T], strategy *window.Strategy, eval func(ctx context.Context) ([]WindowedValue[T], error)) *Collection[T] {
	if strategy == nil {
		strategy = window.DefaultStrategy()
	}
	return &Collection[T]{
		p:        p,
		id:       uuid.Must(uuid.NewV4()),
		name:     name,
		coder:    c,
		strategy: strategy,
		eval:     eval,
	}
}

// Pipeline returns the Pipeline this Collection belongs to
func (c *Collection[T]) Pipeline() *Pipeline {
	return c.p
}

// ID returns the unique identifier of this Collection
func (c *Collection[T]) ID() string {
	return c.id.String()
}

// Name returns the name of the transform which produced this Collection
func (c *Collection[T]) Name() string {
	return c.name
}

// Coder returns the Coder of this Collection, which may be nil if none could be inferred
func (c *Collection[T]) Coder() coder.Coder[T] {
	return c.coder
}

// SetCoder overrides the Coder of this Collection. It must be called before
// any transform is applied to the Collection.
func (c *Collection[T]) SetCoder(cdr coder.Coder[T]) *Collection[T] {
	c.coder = cdr
	return c
}

// Strategy returns the windowing Strategy of this Collection
func (c *Collection[T]) Strategy() *window.Strategy {
	return c.strategy
}

func (c *Collection[T]) String() string {
	return fmt.Sprintf("%s[%s]", c.name, c.id)
}

// Evaluate computes the contents of this Collection, at most once
func (c *Collection[T]) Evaluate(ctx context.Context) ([]WindowedValue[T], error) {
	c.once.Do(func() {
		start := time.Now()
		c.values, c.err = c.eval(ctx)
		if c.err == nil {
			c.p.logger.Debugf(ctx, "Evaluated %s: %d elements in %v", c.name, len(c.values), time.Since(start))
		}
		// release upstream references
		c.eval = nil
	})
	return c.values, c.err
}

// Collect evaluates col and returns its elements, without windowing metadata
func Collect[T any](ctx context.Context, col *Collection[T]) ([]T, error) {
	wvs, err := col.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(wvs))
	for i, wv := range wvs {
		out[i] = wv.Elm
	}
	return out, nil
}

// inferCoder returns the registered Coder for T, or nil
func inferCoder[T any](p *Pipeline) coder.Coder[T] {
	c, err := coder.Lookup[T](p.registry)
	if err != nil {
		return nil
	}
	return c
}

// Create produces a globally windowed Collection holding values, each
// timestamped at window.MinTimestamp. Its Coder is inferred from the
// Pipeline's Registry when possible.
func Create[T any](p *Pipeline, values ...T) *Collection[T] {
	return newCollection(p, "Create", inferCoder[T](p), nil, func(context.Context) ([]WindowedValue[T], error) {
		out := make([]WindowedValue[T], len(values))
		for i, v := range values {
			out[i] = WindowedValue[T]{Elm: v, Timestamp: window.MinTimestamp, Window: window.GlobalWindow{}}
		}
		return out, nil
	})
}

// TimestampedValue is a value paired with an event time
type TimestampedValue[T any] struct {
	Value     T
	Timestamp time.Time
}

// CreateTimestamped produces a globally windowed Collection holding values at their timestamps
func CreateTimestamped[T any](p *Pipeline, values ...TimestampedValue[T]) *Collection[T] {
	return newCollection(p, "CreateTimestamped", inferCoder[T](p), nil, func(context.Context) ([]WindowedValue[T], error) {
		out := make([]WindowedValue[T], len(values))
		for i, v := range values {
			out[i] = WindowedValue[T]{Elm: v.Value, Timestamp: v.Timestamp, Window: window.GlobalWindow{}}
		}
		return out, nil
	})
}

// Impulse produces a Collection holding exactly one element in the global window
func Impulse(p *Pipeline) *Collection[typex.Unit] {
	return Create(p, typex.Unit{}).rename("Impulse")
}

func (c *Collection[T]) rename(name string) *Collection[T] {
	c.name = name
	return c
}

// WindowInto produces a Collection holding the elements of col, re-assigned
// to windows by fn
func WindowInto[T any](col *Collection[T], fn window.Fn) *Collection[T] {
	return newCollection(col.p, "WindowInto("+fn.String()+")", col.coder, &window.Strategy{Fn: fn}, func(ctx context.Context) ([]WindowedValue[T], error) {
		in, err := col.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]WindowedValue[T], len(in))
		for i, wv := range in {
			out[i] = WindowedValue[T]{Elm: wv.Elm, Timestamp: wv.Timestamp, Window: fn.AssignWindow(wv.Timestamp)}
		}
		return out, nil
	})
}

// Flatten produces the union of cols, which must share a windowing Strategy.
// The result takes the Coder and Strategy of the first of cols.
func Flatten[T any](name string, cols ...*Collection[T]) (*Collection[T], error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%s: Flatten requires at least one collection", name)
	}
	first := cols[0]
	for _, c := range cols[1:] {
		if c.strategy.IsGlobal() != first.strategy.IsGlobal() ||
			(!first.strategy.IsGlobal() && !c.strategy.Fn.IsCompatible(first.strategy.Fn)) {
			return nil, fmt.Errorf("%s: cannot flatten %s windowed by %s with %s windowed by %s", name, first, first.strategy, c, c.strategy)
		}
	}
	return newCollection(first.p, name, first.coder, first.strategy, func(ctx context.Context) ([]WindowedValue[T], error) {
		var out []WindowedValue[T]
		for _, c := range cols {
			in, err := c.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, in...)
		}
		return out, nil
	}), nil
}
