package pipeline

import (
	"context"
	"time"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/internal/util"
	"golang.org/x/sync/errgroup"
)

// A DoFn processes the elements of one bundle. A new DoFn is created for
// every bundle, so a DoFn may hold state scoped to its bundle, but never
// shares it with another.
type DoFn[I, O any] interface {
	// ProcessElement processes one element. Values passed to emit inherit the
	// timestamp and window of elm.
	ProcessElement(ctx context.Context, elm WindowedValue[I], emit func(O)) error
}

// A BundleFinisher is a DoFn which emits values once its bundle has been
// processed. Values emitted by FinishBundle carry their own timestamp and window.
type BundleFinisher[O any] interface {
	FinishBundle(ctx context.Context, emit func(WindowedValue[O])) error
}

// ParDo produces a Collection by applying a DoFn, created by newFn, to every
// bundle of col. Bundles are processed in parallel; the output preserves the
// order of bundles. out may be nil if the output will never be shuffled.
func ParDo[I, O any](name string, col *Collection[I], newFn func() DoFn[I, O], out coder.Coder[O]) *Collection[O] {
	p := col.p
	return newCollection(p, name, out, col.strategy, func(ctx context.Context) ([]WindowedValue[O], error) {
		in, err := col.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		bundles := util.Chunk(len(in), p.opts.BundleSize)
		outs := make([][]WindowedValue[O], len(bundles))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Parallelism)
		for i, b := range bundles {
			i, b := i, b
			g.Go(func() error {
				bundleStart := time.Now()
				res, err := processBundle(gctx, name, newFn(), in[b[0]:b[1]])
				outs[i] = res
				p.stats.EndBundle(name, bundleStart, b[1]-b[0])
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		p.stats.EndStage(name, start)
		p.logger.Debugf(ctx, "%s processed %d elements in %d bundles", name, len(in), len(bundles))
		var result []WindowedValue[O]
		for _, o := range outs {
			result = append(result, o...)
		}
		return result, nil
	})
}

func processBundle[I, O any](ctx context.Context, name string, fn DoFn[I, O], bundle []WindowedValue[I]) ([]WindowedValue[O], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []WindowedValue[O]
	for _, elm := range bundle {
		elm := elm
		emit := func(o O) {
			out = append(out, WindowedValue[O]{Elm: o, Timestamp: elm.Timestamp, Window: elm.Window})
		}
		err := util.SafeInvoke(name+" ProcessElement", util.Describe(elm), func() error {
			return fn.ProcessElement(ctx, elm, emit)
		})
		if err != nil {
			return nil, err
		}
	}
	if finisher, ok := fn.(BundleFinisher[O]); ok {
		emit := func(wv WindowedValue[O]) {
			out = append(out, wv)
		}
		err := util.SafeInvoke(name+" FinishBundle", util.Describe(len(bundle)), func() error {
			return finisher.FinishBundle(ctx, emit)
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type mapFn[I, O any] struct {
	fn func(I) (O, error)
}

func (m *mapFn[I, O]) ProcessElement(_ context.Context, elm WindowedValue[I], emit func(O)) error {
	o, err := m.fn(elm.Elm)
	if err != nil {
		return err
	}
	emit(o)
	return nil
}

// Map produces a Collection by applying fn to every element of col
func Map[I, O any](name string, col *Collection[I], fn func(I) (O, error), out coder.Coder[O]) *Collection[O] {
	return ParDo(name, col, func() DoFn[I, O] { return &mapFn[I, O]{fn: fn} }, out)
}

type filterFn[T any] struct {
	keep func(T) bool
}

func (f *filterFn[T]) ProcessElement(_ context.Context, elm WindowedValue[T], emit func(T)) error {
	if f.keep(elm.Elm) {
		emit(elm.Elm)
	}
	return nil
}

// Filter produces a Collection holding the elements of col for which keep returns true
func Filter[T any](name string, col *Collection[T], keep func(T) bool) *Collection[T] {
	return ParDo(name, col, func() DoFn[T, T] { return &filterFn[T]{keep: keep} }, col.coder)
}
