package combiners

import (
	"cmp"
	"math"

	"github.com/go-sif/combine"
)

// Min returns a CombineFn which selects the smallest value. Extracting the
// minimum of no values is an error.
func Min[V cmp.Ordered]() combine.CombineFn[V, *combine.Holder[V], V] {
	return combine.Binary(func(a, b V) (V, error) { return min(a, b), nil })
}

// Max returns a CombineFn which selects the largest value. Extracting the
// maximum of no values is an error.
func Max[V cmp.Ordered]() combine.CombineFn[V, *combine.Holder[V], V] {
	return combine.Binary(func(a, b V) (V, error) { return max(a, b), nil })
}

// MinInt64 returns a CombineFn which selects the smallest int64, or
// math.MaxInt64 for no values
func MinInt64() combine.CombineFn[int64, *combine.Cell[int64], int64] {
	return combine.Int64s(func(a, b int64) int64 { return min(a, b) }, math.MaxInt64)
}

// MaxInt64 returns a CombineFn which selects the largest int64, or
// math.MinInt64 for no values
func MaxInt64() combine.CombineFn[int64, *combine.Cell[int64], int64] {
	return combine.Int64s(func(a, b int64) int64 { return max(a, b) }, math.MinInt64)
}

// SumInt32 returns a CombineFn which sums int32 values with a fixed-width accumulator
func SumInt32() combine.CombineFn[int32, *combine.Cell[int32], int32] {
	return combine.Int32s(func(a, b int32) int32 { return a + b }, 0)
}

// SumInt64 returns a CombineFn which sums int64 values with a fixed-width accumulator
func SumInt64() combine.CombineFn[int64, *combine.Cell[int64], int64] {
	return combine.Int64s(func(a, b int64) int64 { return a + b }, 0)
}

// SumFloat64 returns a CombineFn which sums float64 values with a fixed-width accumulator
func SumFloat64() combine.CombineFn[float64, *combine.Cell[float64], float64] {
	return combine.Float64s(func(a, b float64) float64 { return a + b }, 0)
}
