package pipeline

import (
	"context"

	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/window"
	"github.com/gofrs/uuid"
)

// view is a Collection materialized by window, for reading as a side input.
// Once materialized it is never modified, so readers may share it.
type view[T any] struct {
	id           uuid.UUID
	name         string
	col          *Collection[T]
	materialized bool
	byWindow     map[string][]T
	err          error
}

func newView[T any](name string, col *Collection[T]) view[T] {
	return view[T]{id: uuid.Must(uuid.NewV4()), name: name, col: col}
}

// materialize evaluates the underlying Collection once, under a per-view lock
func (v *view[T]) materialize(ctx context.Context) (map[string][]T, error) {
	locks := v.col.p.views
	id := v.id.String()
	locks.Lock(id)
	defer locks.Unlock(id)
	if v.materialized {
		return v.byWindow, v.err
	}
	v.materialized = true
	wvs, err := v.col.Evaluate(ctx)
	if err != nil {
		v.err = err
		return nil, err
	}
	byWindow := make(map[string][]T)
	for _, wv := range wvs {
		w, err := window.Encode(nil, wv.Window)
		if err != nil {
			v.err = err
			return nil, err
		}
		byWindow[string(w)] = append(byWindow[string(w)], wv.Elm)
	}
	v.byWindow = byWindow
	v.col.p.logger.Debugf(ctx, "Materialized view %s over %d windows", v.name, len(byWindow))
	return byWindow, nil
}

// values returns the values of the side input window corresponding to main
func (v *view[T]) values(ctx context.Context, main window.Window) ([]T, error) {
	byWindow, err := v.materialize(ctx)
	if err != nil {
		return nil, err
	}
	w, err := window.Encode(nil, v.col.strategy.SideInputWindow(main))
	if err != nil {
		return nil, err
	}
	return byWindow[string(w)], nil
}

// SingletonView reads a Collection holding at most one element per window as
// a single value
type SingletonView[T any] struct {
	view[T]
	def        T
	hasDefault bool
}

// AsSingleton produces a SingletonView of col. Reading a window with no
// element is an EmptyResultError.
func AsSingleton[T any](name string, col *Collection[T]) *SingletonView[T] {
	return &SingletonView[T]{view: newView(name, col)}
}

// AsSingletonWithDefault produces a SingletonView of col which yields def for
// a window with no element
func AsSingletonWithDefault[T any](name string, col *Collection[T], def T) *SingletonView[T] {
	return &SingletonView[T]{view: newView(name, col), def: def, hasDefault: true}
}

// Name returns the name of this SingletonView
func (s *SingletonView[T]) Name() string {
	return s.name
}

// Get returns the value of this view for the side input window which
// corresponds to the main input window main
func (s *SingletonView[T]) Get(ctx context.Context, main window.Window) (T, error) {
	var zero T
	values, err := s.values(ctx, main)
	if err != nil {
		return zero, err
	}
	switch len(values) {
	case 0:
		if s.hasDefault {
			return s.def, nil
		}
		return zero, errors.EmptyResultError{View: s.name}
	case 1:
		return values[0], nil
	default:
		return zero, errors.AmbiguousResultError{View: s.name, Count: len(values)}
	}
}

// IterableView reads every element of a window of a Collection
type IterableView[T any] struct {
	view[T]
}

// AsIterable produces an IterableView of col
func AsIterable[T any](name string, col *Collection[T]) *IterableView[T] {
	return &IterableView[T]{view: newView(name, col)}
}

// Get returns the elements of this view for the side input window which
// corresponds to the main input window main. It must not be modified.
func (i *IterableView[T]) Get(ctx context.Context, main window.Window) ([]T, error) {
	return i.values(ctx, main)
}
