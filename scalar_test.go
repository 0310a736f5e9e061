package combine

import (
	"math"
	"testing"

	"github.com/go-sif/combine/coder"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestScalarIdentityLaw(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	sum32 := Int32s(func(a, b int32) int32 { return a + b }, 0)
	min64 := Int64s(func(a, b int64) int64 { return min(a, b) }, math.MaxInt64)
	max64 := Float64s(math.Max, math.Inf(-1))

	properties.Property("int32 sum has identity 0", prop.ForAll(
		func(x int32) bool {
			return sum32.Apply(sum32.Identity(), x) == x && sum32.Apply(x, sum32.Identity()) == x
		},
		gen.Int32(),
	))
	properties.Property("int64 min has identity MaxInt64", prop.ForAll(
		func(x int64) bool {
			return min64.Apply(min64.Identity(), x) == x && min64.Apply(x, min64.Identity()) == x
		},
		gen.Int64(),
	))
	properties.Property("float64 max has identity -Inf", prop.ForAll(
		func(x float64) bool {
			return max64.Apply(max64.Identity(), x) == x && max64.Apply(x, max64.Identity()) == x
		},
		gen.Float64(),
	))
	properties.TestingRun(t)
}

func TestScalarEmptyReductionYieldsIdentity(t *testing.T) {
	out, err := Apply[int64, *Cell[int64], int64](Int64s(func(a, b int64) int64 { return max(a, b) }, math.MinInt64), nil)
	require.Nil(t, err)
	require.Equal(t, int64(math.MinInt64), out)
}

func TestScalarMerge(t *testing.T) {
	fn := Float64s(func(a, b float64) float64 { return a + b }, 0)
	a := fn.CreateAccumulator()
	require.Nil(t, fn.AddInput(a, 1.5))
	b := fn.CreateAccumulator()
	require.Nil(t, fn.AddInput(b, 2.5))
	merged, err := fn.MergeAccumulators([]*Cell[float64]{a, b, fn.CreateAccumulator()})
	require.Nil(t, err)
	out, err := fn.ExtractOutput(merged)
	require.Nil(t, err)
	require.Equal(t, 4.0, out)

	single, err := fn.MergeAccumulators([]*Cell[float64]{b})
	require.Nil(t, err)
	require.Equal(t, 2.5, single.Value)
}

func TestScalarCoders(t *testing.T) {
	widths := map[string]int{}
	c32, err := Int32s(func(a, b int32) int32 { return a + b }, 0).AccumulatorCoder(nil, nil)
	require.Nil(t, err)
	buf, err := coder.Marshal(c32, &Cell[int32]{Value: -7})
	require.Nil(t, err)
	widths["int32"] = len(buf)
	cell, err := coder.Unmarshal(c32, buf)
	require.Nil(t, err)
	require.Equal(t, int32(-7), cell.Value)

	c64, err := sumInt64s().(*ScalarCombineFn[int64]).AccumulatorCoder(nil, nil)
	require.Nil(t, err)
	buf, err = coder.Marshal(c64, &Cell[int64]{Value: math.MaxInt64})
	require.Nil(t, err)
	widths["int64"] = len(buf)

	cf, err := Float64s(math.Max, 0).AccumulatorCoder(nil, nil)
	require.Nil(t, err)
	buf, err = coder.Marshal(cf, &Cell[float64]{Value: math.Pi})
	require.Nil(t, err)
	widths["float64"] = len(buf)
	f, err := coder.Unmarshal(cf, buf)
	require.Nil(t, err)
	require.Equal(t, math.Pi, f.Value)

	require.Equal(t, map[string]int{"int32": 4, "int64": 8, "float64": 8}, widths)

	out, err := Int32s(func(a, b int32) int32 { return a + b }, 0).OutputCoder(nil, nil)
	require.Nil(t, err)
	require.Equal(t, coder.Int32(), out)
}
