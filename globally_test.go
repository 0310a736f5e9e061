package combine

import (
	"context"
	"testing"
	"time"

	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/window"
	"github.com/stretchr/testify/require"
)

func TestGloballyAverage(t *testing.T) {
	p := newTestPipeline(t, nil)
	means, err := Globally(pipeline.Create(p, 2.0, 4.0, 6.0), meanFn())
	require.Nil(t, err)
	out, err := pipeline.Collect(context.Background(), means)
	require.Nil(t, err)
	require.Equal(t, []float64{4.0}, out)
}

func TestGloballyEmptyWithDefaults(t *testing.T) {
	p := newTestPipeline(t, nil)
	sums, err := Globally(pipeline.Create[int64](p), sumInt64s())
	require.Nil(t, err)
	out, err := pipeline.Collect(context.Background(), sums)
	require.Nil(t, err)
	require.Equal(t, []int64{0}, out)
}

func TestGloballyEmptyWithoutDefaults(t *testing.T) {
	p := newTestPipeline(t, nil)
	sums, err := Globally(pipeline.Create[int64](p), sumInt64s(), WithoutDefaults())
	require.Nil(t, err)
	out, err := pipeline.Collect(context.Background(), sums)
	require.Nil(t, err)
	require.Empty(t, out)
}

func TestGloballyEmptyWithoutIdentity(t *testing.T) {
	p := newTestPipeline(t, nil)
	maxes, err := Globally(pipeline.Create[int](p), maxInts())
	require.Nil(t, err)
	_, err = pipeline.Collect(context.Background(), maxes)
	require.ErrorIs(t, err, errors.ErrNoIdentity)
}

func TestGloballyNonGlobalWindows(t *testing.T) {
	p := newTestPipeline(t, nil)
	base := time.UnixMilli(0).UTC()
	col := pipeline.WindowInto(pipeline.CreateTimestamped(p,
		pipeline.TimestampedValue[int64]{Value: 1, Timestamp: base},
		pipeline.TimestampedValue[int64]{Value: 2, Timestamp: base.Add(10 * time.Second)},
		pipeline.TimestampedValue[int64]{Value: 5, Timestamp: base.Add(3 * time.Minute)},
	), window.NewFixedWindows(time.Minute))

	_, err := Globally(col, sumInt64s())
	var cerr errors.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "Combine.Globally", cerr.Transform)
	require.Contains(t, cerr.Error(), "WithoutDefaults")

	sums, err := Globally(col, sumInt64s(), WithoutDefaults())
	require.Nil(t, err)
	out, err := pipeline.Collect(context.Background(), sums)
	require.Nil(t, err)
	require.ElementsMatch(t, []int64{3, 5}, out)

	_, err = GloballyAsSingletonView(col, sumInt64s())
	require.ErrorAs(t, err, &cerr)
}

func TestGloballyRequiresInputCoder(t *testing.T) {
	type point struct{ X int }
	p := newTestPipeline(t, nil)
	fn := Binary(func(a, b point) (point, error) { return point{X: a.X + b.X}, nil })
	_, err := Globally[point, *Holder[point], point](pipeline.Create(p, point{1}), fn)
	var ierr errors.CoderInferenceError
	require.ErrorAs(t, err, &ierr)
}

func TestGloballyAsSingletonView(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()

	view, err := GloballyAsSingletonView(pipeline.Create[int64](p, 1, 2, 3), sumInt64s())
	require.Nil(t, err)
	v, err := view.Get(ctx, window.GlobalWindow{})
	require.Nil(t, err)
	require.Equal(t, int64(6), v)

	defaulted, err := GloballyAsSingletonView(pipeline.Create[int64](p), sumInt64s())
	require.Nil(t, err)
	v, err = defaulted.Get(ctx, window.GlobalWindow{})
	require.Nil(t, err)
	require.Equal(t, int64(0), v)

	empty, err := GloballyAsSingletonView(pipeline.Create[int64](p), sumInt64s(), WithoutDefaults())
	require.Nil(t, err)
	_, err = empty.Get(ctx, window.GlobalWindow{})
	var eerr errors.EmptyResultError
	require.ErrorAs(t, err, &eerr)
	require.Equal(t, "Combine.GloballyAsSingletonView", eerr.View)

	ambiguous := pipeline.AsSingleton("Ambiguous", pipeline.Create(p, 1, 2))
	_, err = ambiguous.Get(ctx, window.GlobalWindow{})
	var aerr errors.AmbiguousResultError
	require.ErrorAs(t, err, &aerr)
}

type sideInputSum struct {
	view *pipeline.SingletonView[int64]
}

func (s *sideInputSum) ProcessElement(ctx context.Context, elm pipeline.WindowedValue[int64], emit func(int64)) error {
	total, err := s.view.Get(ctx, elm.Window)
	if err != nil {
		return err
	}
	emit(elm.Elm * 100 / total)
	return nil
}

func TestGloballyAsSideInput(t *testing.T) {
	p := newTestPipeline(t, nil)
	values := pipeline.Create[int64](p, 1, 3, 4, 2)
	total, err := GloballyAsSingletonView(values, sumInt64s())
	require.Nil(t, err)
	percents := pipeline.ParDo("Percent", values, func() pipeline.DoFn[int64, int64] {
		return &sideInputSum{view: total}
	}, nil)
	out, err := pipeline.Collect(context.Background(), percents)
	require.Nil(t, err)
	require.ElementsMatch(t, []int64{10, 30, 40, 20}, out)
}

func TestSimpleGlobally(t *testing.T) {
	p := newTestPipeline(t, nil)
	ones := make([]int, 50)
	for i := range ones {
		ones[i] = 1
	}
	for _, size := range []int{1, 3, 20} {
		out, err := SimpleGlobally(pipeline.Create(p, ones...), sumReduce(nil), WithBufferSize(size))
		require.Nil(t, err)
		values, err := pipeline.Collect(context.Background(), out)
		require.Nil(t, err)
		require.Equal(t, []int{50}, values)
	}
}

func TestGloballyAsSingletonViewWithoutIdentity(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()

	view, err := GloballyAsSingletonView(pipeline.Create(p, 1, 5, 3), maxInts())
	require.Nil(t, err)
	v, err := view.Get(ctx, window.GlobalWindow{})
	require.Nil(t, err)
	require.Equal(t, 5, v)

	empty, err := GloballyAsSingletonView(pipeline.Create[int](p), maxInts())
	require.Nil(t, err)
	_, err = empty.Get(ctx, window.GlobalWindow{})
	var eerr errors.EmptyResultError
	require.ErrorAs(t, err, &eerr)
}
