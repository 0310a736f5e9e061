package combine

import (
	"testing"

	"github.com/go-sif/combine/coder"
	"github.com/stretchr/testify/require"
)

func sumReduce(calls *int) func([]int) (int, error) {
	return func(vs []int) (int, error) {
		if calls != nil {
			*calls++
		}
		total := 0
		for _, v := range vs {
			total += v
		}
		return total, nil
	}
}

func TestSimpleCollapse(t *testing.T) {
	calls := 0
	fn := Simple(sumReduce(&calls))
	require.Equal(t, DefaultBufferSize, fn.Threshold())
	acc := fn.CreateAccumulator()
	for i := 0; i < 50; i++ {
		require.Nil(t, fn.AddInput(acc, 1))
		require.LessOrEqual(t, len(acc.Values), DefaultBufferSize)
	}
	require.Equal(t, 2, calls)
	out, err := fn.ExtractOutput(acc)
	require.Nil(t, err)
	require.Equal(t, 50, out)
}

func TestSimpleThresholdDoesNotChangeResult(t *testing.T) {
	for _, threshold := range []int{0, 1, 2, 7, 20, 100} {
		fn := SimpleWithBuffer(sumReduce(nil), threshold)
		ones := make([]int, 50)
		for i := range ones {
			ones[i] = 1
		}
		out, err := Apply[int, *Buffer[int], int](fn, ones)
		require.Nil(t, err)
		require.Equal(t, 50, out, "threshold %d", threshold)
	}
}

func TestSimpleMerge(t *testing.T) {
	fn := Simple(sumReduce(nil))
	a := &Buffer[int]{Values: []int{1, 2}}
	b := &Buffer[int]{Values: []int{3}}
	merged, err := fn.MergeAccumulators([]*Buffer[int]{a, b, fn.CreateAccumulator()})
	require.Nil(t, err)
	require.Equal(t, []int{6}, merged.Values)
}

func TestSimpleCoder(t *testing.T) {
	fn := Simple(sumReduce(nil))
	c, err := fn.AccumulatorCoder(nil, coder.Int())
	require.Nil(t, err)
	buf, err := coder.Marshal(c, &Buffer[int]{Values: []int{4, 5, 6}})
	require.Nil(t, err)
	b, err := coder.Unmarshal(c, buf)
	require.Nil(t, err)
	require.Equal(t, []int{4, 5, 6}, b.Values)

	_, err = fn.AccumulatorCoder(nil, nil)
	require.NotNil(t, err)
}
