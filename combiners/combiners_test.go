package combiners_test

import (
	"context"
	"math"
	"testing"

	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/combiners"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/pipeline"
	combinetest "github.com/go-sif/combine/testing"
	"github.com/go-sif/combine/typex"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func inputs(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i*7%13) - 6
	}
	return out
}

func accCoder[VI, VA, VO any](t *testing.T, fn combine.CombineFn[VI, VA, VO], in coder.Coder[VI]) coder.Coder[VA] {
	c, err := combine.AccumulatorCoder(fn, coder.NewRegistry(), in)
	require.Nil(t, err)
	return c
}

func TestCounter(t *testing.T) {
	fn := combiners.Counter[string]()
	out, err := combine.Apply(fn, []string{"a", "b", "a"})
	require.Nil(t, err)
	require.Equal(t, int64(3), out)
	out, err = combine.Apply(fn, nil)
	require.Nil(t, err)
	require.Equal(t, int64(0), out)

	checker := &combinetest.MergeChecker[string, *combiners.Count, int64]{Fn: fn, Coder: accCoder(t, fn, coder.String())}
	require.Nil(t, checker.Check([]string{"a", "b", "c", "d", "e", "f", "g"}))
}

func TestAdder(t *testing.T) {
	fn := combiners.Adder[int64]()
	out, err := combine.Apply(fn, []int64{1, 2, 3})
	require.Nil(t, err)
	require.Equal(t, int64(6), out)
	out, err = combine.Apply(fn, nil)
	require.Nil(t, err)
	require.Equal(t, int64(0), out)

	checker := &combinetest.MergeChecker[int64, *combiners.Sum[int64], int64]{Fn: fn, Coder: accCoder(t, fn, coder.Int64())}
	require.Nil(t, checker.Check(inputs(40)))

	_, err = combine.AccumulatorCoder(fn, coder.NewRegistry(), nil)
	var ierr errors.CoderInferenceError
	require.ErrorAs(t, err, &ierr)
}

func TestAverager(t *testing.T) {
	fn := combiners.Averager[int]()
	out, err := combine.Apply(fn, []int{2, 4, 6})
	require.Nil(t, err)
	require.Equal(t, 4.0, out)
	out, err = combine.Apply(fn, nil)
	require.Nil(t, err)
	require.True(t, math.IsNaN(out))

	checker := &combinetest.MergeChecker[int, *combiners.Mean, float64]{
		Fn:      fn,
		Coder:   accCoder(t, fn, coder.Int()),
		CmpOpts: []cmp.Option{cmpopts.EquateApprox(0, 1e-9)},
	}
	require.Nil(t, checker.Check([]int{1, 5, 9, 2, 2, 8, 100, -4}))
}

func TestMinMax(t *testing.T) {
	values := []string{"pear", "apple", "fig", "quince"}
	least, err := combine.Apply(combiners.Min[string](), values)
	require.Nil(t, err)
	require.Equal(t, "apple", least)
	greatest, err := combine.Apply(combiners.Max[string](), values)
	require.Nil(t, err)
	require.Equal(t, "quince", greatest)

	_, err = combine.Apply(combiners.Max[int](), nil)
	require.ErrorIs(t, err, errors.ErrNoIdentity)

	out, err := combine.Apply(combiners.MinInt64(), nil)
	require.Nil(t, err)
	require.Equal(t, int64(math.MaxInt64), out)
	out, err = combine.Apply(combiners.MaxInt64(), inputs(20))
	require.Nil(t, err)
	require.Equal(t, int64(6), out)

	maxFn := combiners.Max[int64]()
	checker := &combinetest.MergeChecker[int64, *combine.Holder[int64], int64]{Fn: maxFn, Coder: accCoder(t, maxFn, coder.Int64())}
	require.Nil(t, checker.Check(inputs(25)))
}

func TestScalarSums(t *testing.T) {
	s32, err := combine.Apply(combiners.SumInt32(), []int32{1, 2, 3})
	require.Nil(t, err)
	require.Equal(t, int32(6), s32)
	s64, err := combine.Apply(combiners.SumInt64(), inputs(13))
	require.Nil(t, err)
	require.Equal(t, int64(0), s64)
	f64, err := combine.Apply(combiners.SumFloat64(), []float64{0.5, 0.25})
	require.Nil(t, err)
	require.Equal(t, 0.75, f64)

	fn := combiners.SumInt64()
	checker := &combinetest.MergeChecker[int64, *combine.Cell[int64], int64]{Fn: fn, Coder: accCoder(t, fn, coder.Int64())}
	require.Nil(t, checker.Check(inputs(50)))
}

func TestCompose(t *testing.T) {
	fn := combiners.Compose(combiners.Counter[float64](), combiners.SumFloat64())
	out, err := combine.Apply(fn, []float64{1, 2, 3.5})
	require.Nil(t, err)
	require.Equal(t, typex.NewKV(int64(3), 6.5), out)

	outCoder, err := combine.OutputCoder(fn, coder.NewRegistry(), coder.Float64())
	require.Nil(t, err)
	buf, err := coder.Marshal(outCoder, out)
	require.Nil(t, err)
	decoded, err := coder.Unmarshal(outCoder, buf)
	require.Nil(t, err)
	require.Equal(t, out, decoded)

	checker := &combinetest.MergeChecker[float64, *combiners.Composed[*combiners.Count, *combine.Cell[float64]], typex.KV[int64, float64]]{
		Fn:    fn,
		Coder: accCoder(t, fn, coder.Float64()),
	}
	require.Nil(t, checker.Check([]float64{1, 2, 3, 4, 5, 6, 7, 8}))
}

func TestCombinersInPipeline(t *testing.T) {
	p, err := combinetest.LocalPipeline(nil)
	require.Nil(t, err)
	defer p.Close()
	ctx := context.Background()

	words := pipeline.Create(p, "a", "b", "a", "c", "a", "b")
	pairs := pipeline.Map("Pair", words, func(w string) (typex.KV[string, int64], error) {
		return typex.NewKV(w, int64(len(w))), nil
	}, coder.Coder[typex.KV[string, int64]](coder.KV(coder.String(), coder.Int64())))

	counts, err := combine.PerKey(pairs, combiners.Counter[int64]())
	require.Nil(t, err)
	out, err := pipeline.Collect(ctx, counts)
	require.Nil(t, err)
	require.ElementsMatch(t, []typex.KV[string, int64]{
		typex.NewKV("a", int64(3)), typex.NewKV("b", int64(2)), typex.NewKV("c", int64(1)),
	}, out)

	means, err := combine.Globally(pipeline.Create(p, 2.0, 4.0, 6.0), combiners.Averager[float64]())
	require.Nil(t, err)
	mean, err := pipeline.Collect(ctx, means)
	require.Nil(t, err)
	require.Equal(t, []float64{4.0}, mean)

	sums, err := combine.PerKeyWithHotKeys(pairs, combiners.Adder[int64](), func(string) int { return 3 })
	require.Nil(t, err)
	out, err = pipeline.Collect(ctx, sums)
	require.Nil(t, err)
	require.ElementsMatch(t, []typex.KV[string, int64]{
		typex.NewKV("a", int64(3)), typex.NewKV("b", int64(2)), typex.NewKV("c", int64(1)),
	}, out)
}
