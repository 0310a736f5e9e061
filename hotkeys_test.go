package combine

import (
	"context"
	"testing"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func oneToHundred(p *pipeline.Pipeline) *pipeline.Collection[typex.KV[string, int64]] {
	pairs := make([]typex.KV[string, int64], 0, 103)
	for i := int64(1); i <= 100; i++ {
		pairs = append(pairs, typex.NewKV("k", i))
	}
	pairs = append(pairs, typex.NewKV("cold", int64(7)), typex.NewKV("cold", int64(8)), typex.NewKV("other", int64(1)))
	return keyed(p, coder.Int64(), pairs...)
}

func TestPerKeyWithHotKeys(t *testing.T) {
	p := newTestPipeline(t, nil)
	expected := map[string]int64{"k": 5050, "cold": 15, "other": 1}
	for _, fanOut := range []int{1, 5} {
		fanOut := fanOut
		sums, err := PerKeyWithHotKeys(oneToHundred(p), sumInt64s(), func(key string) int {
			if key == "k" {
				return fanOut
			}
			return 1
		})
		require.Nil(t, err)
		require.Equal(t, expected, collectMap(t, sums))
	}

	spread, err := PerKey(oneToHundred(p), sumInt64s(), WithHotKeySpread(5))
	require.Nil(t, err)
	require.Equal(t, expected, collectMap(t, spread))
}

func TestPerKeyWithHotKeysBinary(t *testing.T) {
	p := newTestPipeline(t, nil)
	var pairs []typex.KV[string, int]
	for i := 0; i < 40; i++ {
		pairs = append(pairs, typex.NewKV("hot", i), typex.NewKV("warm", -i))
	}
	maxes, err := PerKeyWithHotKeys(keyed(p, coder.Int(), pairs...), maxInts(), func(string) int { return 3 })
	require.Nil(t, err)
	require.Equal(t, map[string]int{"hot": 39, "warm": 0}, collectMap(t, maxes))
}

func TestPerKeyWithHotKeysRequiresAccumulatorCoder(t *testing.T) {
	p := newTestPipeline(t, nil)
	col := keyed(p, coder.Float64(), typex.NewKV("k", 1.0))
	_, err := PerKeyWithHotKeys(col, meanFn(), func(string) int { return 2 })
	require.NotNil(t, err)
}

func TestSplitHotKeysRoundRobin(t *testing.T) {
	split := newSplitHotKeysFn[string, int](func(key string) int {
		if key == "hot" {
			return 3
		}
		return 0
	}, coder.String())
	var routes []routed[string, int]
	emit := func(r routed[string, int]) { routes = append(routes, r) }
	for i, key := range []string{"hot", "cold", "hot", "hot", "hot"} {
		require.Nil(t, split.ProcessElement(context.Background(), pipeline.WindowedValue[typex.KV[string, int]]{Elm: typex.NewKV(key, i)}, emit))
	}
	var shards []int
	for _, r := range routes {
		if r.key.Key == "cold" {
			require.False(t, r.hot)
			continue
		}
		require.True(t, r.hot)
		shards = append(shards, r.key.Shard)
	}
	require.Equal(t, []int{0, 1, 2, 0}, shards)
}

func kvMap(kvs []typex.KV[string, int64]) map[string]int64 {
	m := make(map[string]int64, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestShardKeyCoder(t *testing.T) {
	c := ShardKeyCoder(coder.String())
	buf, err := coder.Marshal(c, ShardKey[string]{Key: "k", Shard: 300})
	require.Nil(t, err)
	sk, err := coder.Unmarshal(c, buf)
	require.Nil(t, err)
	require.Equal(t, ShardKey[string]{Key: "k", Shard: 300}, sk)
	_, err = coder.Unmarshal(c, buf[:len(buf)-1])
	require.NotNil(t, err)
}

func TestHotPostCombine(t *testing.T) {
	post := &hotPostCombineFn[string, int64, *Cell[int64], int64]{fn: AsKeyedFn[string](sumInt64s())}
	list := post.CreateAccumulator("k")
	out, err := post.ExtractOutput("k", list)
	require.Nil(t, err)
	require.Equal(t, int64(0), out)

	require.Nil(t, post.AddInput("k", list, &Cell[int64]{Value: 3}))
	require.Nil(t, post.AddInput("k", list, &Cell[int64]{Value: 4}))
	require.Len(t, list.Accs, 1)
	merged, err := post.MergeAccumulators("k", []*AccumulatorList[*Cell[int64]]{list, post.CreateAccumulator("k"), {Accs: []*Cell[int64]{{Value: 5}}}})
	require.Nil(t, err)
	require.Len(t, merged.Accs, 1)
	out, err = post.ExtractOutput("k", merged)
	require.Nil(t, err)
	require.Equal(t, int64(12), out)

	empty, err := post.MergeAccumulators("k", []*AccumulatorList[*Cell[int64]]{post.CreateAccumulator("k")})
	require.Nil(t, err)
	require.Empty(t, empty.Accs)

	c := AccumulatorListCoder(coder.FixedInt64())
	buf, err := coder.Marshal(c, &AccumulatorList[int64]{Accs: []int64{1, 2}})
	require.Nil(t, err)
	decoded, err := coder.Unmarshal(c, buf)
	require.Nil(t, err)
	require.Equal(t, []int64{1, 2}, decoded.Accs)
}

func TestHotKeyEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("sharding keys does not change per-key sums", prop.ForAll(
		func(values []int64, keys []uint8, fanOut int) bool {
			p, err := pipeline.New(&pipeline.Options{BundleSize: 3, Parallelism: 2, ShuffleBuckets: 2, MergeFanIn: 2})
			if err != nil {
				return false
			}
			defer p.Close()
			pairs := make([]typex.KV[string, int64], len(values))
			for i, v := range values {
				key := "k0"
				if i < len(keys) {
					key = string(rune('a' + keys[i]%4))
				}
				pairs[i] = typex.NewKV(key, v)
			}
			plain, err := PerKey(keyed(p, coder.Int64(), pairs...), sumInt64s())
			if err != nil {
				return false
			}
			sharded, err := PerKeyWithHotKeys(keyed(p, coder.Int64(), pairs...), sumInt64s(), func(string) int { return fanOut })
			if err != nil {
				return false
			}
			want, err := pipeline.Collect(context.Background(), plain)
			if err != nil {
				return false
			}
			got, err := pipeline.Collect(context.Background(), sharded)
			if err != nil {
				return false
			}
			return cmp.Equal(kvMap(want), kvMap(got))
		},
		gen.SliceOf(gen.Int64Range(-1000, 1000)),
		gen.SliceOf(gen.UInt8()),
		gen.IntRange(1, 8),
	))
	properties.TestingRun(t)
}
