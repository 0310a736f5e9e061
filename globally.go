package combine

import (
	"context"
	stderrors "errors"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
)

const nonGlobalDefaultsSuggestion = "use WithoutDefaults() to output nothing for an empty window, " +
	"or GloballyAsSingletonView() to read the output of the combiner over no inputs from a side input"

// Globally combines every element of each window of col with fn. col must
// have a coder.
//
// Unless WithoutDefaults is given, an empty input still produces one output,
// the output of fn over no inputs. That requires col to be globally windowed,
// since the windows which received no inputs cannot otherwise be known.
func Globally[VI, VA, VO any](col *pipeline.Collection[VI], fn CombineFn[VI, VA, VO], opts ...Option) (*pipeline.Collection[VO], error) {
	o := newOptions("Combine.Globally", opts)
	if !o.withoutDefaults && !col.Strategy().IsGlobal() {
		return nil, errors.ConfigurationError{
			Transform:  o.name,
			Problem:    "default values are not supported if the input is not windowed by GlobalWindows, but it is windowed by " + col.Strategy().String(),
			Suggestion: nonGlobalDefaultsSuggestion,
		}
	}
	values, err := globallyWithoutDefaults(col, fn, o)
	if err != nil {
		return nil, err
	}
	if o.withoutDefaults {
		return values, nil
	}
	view := pipeline.AsIterable(o.name+"/View", values)
	defaults := pipeline.ParDo(o.name+"/DefaultIfEmpty", pipeline.Impulse(col.Pipeline()), func() pipeline.DoFn[typex.Unit, VO] {
		return &defaultIfEmptyFn[VI, VA, VO]{fn: fn, view: view}
	}, values.Coder())
	return pipeline.Flatten(o.name+"/Flatten", values, defaults)
}

// globallyWithoutDefaults keys every element of col by typex.Unit, combines per key, and drops the key
func globallyWithoutDefaults[VI, VA, VO any](col *pipeline.Collection[VI], fn CombineFn[VI, VA, VO], o *options) (*pipeline.Collection[VO], error) {
	inCoder := col.Coder()
	if inCoder == nil {
		return nil, errors.CoderInferenceError{Type: coder.TypeName[VI]()}
	}
	keyed := pipeline.Map(o.name+"/WithKeys", col, func(v VI) (typex.KV[typex.Unit, VI], error) {
		return typex.NewKV(typex.Unit{}, v), nil
	}, coder.Coder[typex.KV[typex.Unit, VI]](coder.KV(coder.Unit(), inCoder)))
	combined, err := perKey(keyed, AsKeyedFn[typex.Unit](fn), o.step("PerKey", o.accCoder, o.outCoder))
	if err != nil {
		return nil, err
	}
	_, outCoder, err := kvCoders(o.name, combined)
	if err != nil {
		return nil, err
	}
	return pipeline.Map(o.name+"/Values", combined, func(kv typex.KV[typex.Unit, VO]) (VO, error) {
		return kv.Value, nil
	}, outCoder), nil
}

// defaultIfEmptyFn emits the output of fn over no inputs iff view is empty
type defaultIfEmptyFn[VI, VA, VO any] struct {
	fn   CombineFn[VI, VA, VO]
	view *pipeline.IterableView[VO]
}

func (d *defaultIfEmptyFn[VI, VA, VO]) ProcessElement(ctx context.Context, elm pipeline.WindowedValue[typex.Unit], emit func(VO)) error {
	values, err := d.view.Get(ctx, elm.Window)
	if err != nil {
		return err
	}
	if len(values) > 0 {
		return nil
	}
	out, err := Apply(d.fn, nil)
	if err != nil {
		return err
	}
	emit(out)
	return nil
}

// GloballyAsSingletonView combines every element of each window of col with
// fn, and makes the result available as a side input.
//
// Unless WithoutDefaults is given, the view yields the output of fn over no
// inputs for a window with no elements, which requires col to be globally
// windowed. With WithoutDefaults, or when fn has no identity to extract from
// an empty accumulator, reading such a window is an EmptyResultError.
func GloballyAsSingletonView[VI, VA, VO any](col *pipeline.Collection[VI], fn CombineFn[VI, VA, VO], opts ...Option) (*pipeline.SingletonView[VO], error) {
	o := newOptions("Combine.GloballyAsSingletonView", opts)
	if !o.withoutDefaults && !col.Strategy().IsGlobal() {
		return nil, errors.ConfigurationError{
			Transform:  o.name,
			Problem:    "default values are not supported if the input is not windowed by GlobalWindows, but it is windowed by " + col.Strategy().String(),
			Suggestion: "use WithoutDefaults()",
		}
	}
	values, err := globallyWithoutDefaults(col, fn, o)
	if err != nil {
		return nil, err
	}
	if o.withoutDefaults {
		return pipeline.AsSingleton(o.name, values), nil
	}
	def, err := Apply(fn, nil)
	if stderrors.Is(err, errors.ErrNoIdentity) {
		return pipeline.AsSingleton(o.name, values), nil
	} else if err != nil {
		return nil, err
	}
	return pipeline.AsSingletonWithDefault(o.name, values, def), nil
}
