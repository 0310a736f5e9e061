package combine

import (
	"context"
	"fmt"

	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/pipeline"
	"github.com/go-sif/combine/typex"
	"google.golang.org/protobuf/encoding/protowire"
)

// ShardKey is an intermediate key of PerKeyWithHotKeys: one of several shards of a hot key
type ShardKey[K any] struct {
	Key   K
	Shard int
}

func (s ShardKey[K]) String() string {
	return fmt.Sprintf("%v#%d", s.Key, s.Shard)
}

// shardKeyCoder encodes a ShardKey as its key followed by a varint shard
type shardKeyCoder[K any] struct {
	key coder.Coder[K]
}

// ShardKeyCoder returns a Coder for ShardKeys of keys encoded by key
func ShardKeyCoder[K any](key coder.Coder[K]) coder.Coder[ShardKey[K]] {
	return &shardKeyCoder[K]{key: key}
}

func (c *shardKeyCoder[K]) Encode(buf []byte, sk ShardKey[K]) ([]byte, error) {
	buf, err := c.key.Encode(buf, sk.Key)
	if err != nil {
		return nil, err
	}
	return protowire.AppendVarint(buf, uint64(sk.Shard)), nil
}

func (c *shardKeyCoder[K]) Decode(buf []byte) (ShardKey[K], int, error) {
	k, n, err := c.key.Decode(buf)
	if err != nil {
		return ShardKey[K]{}, 0, err
	}
	shard, m := protowire.ConsumeVarint(buf[n:])
	if m < 0 {
		return ShardKey[K]{}, 0, coder.TruncatedError{What: "shard", Code: m}
	}
	return ShardKey[K]{Key: k, Shard: int(shard)}, n + m, nil
}

// PerKeyWithHotKeys is PerKey for inputs where some keys receive far more
// values than others. spread returns the number of shards the values of a
// key are spread over; keys with a spread of 1 or less are combined as
// PerKey would. The values of a sharded key are first combined per shard,
// then the resulting accumulators are merged per key. The result is
// identical to PerKey's.
//
// The accumulators of fn must be encodable: either fn provides an
// accumulator coder, one is registered, or WithAccumulatorCoder is given.
func PerKeyWithHotKeys[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn CombineFn[VI, VA, VO], spread func(K) int, opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	return KeyedPerKeyWithHotKeys(col, AsKeyedFn[K](fn), spread, opts...)
}

// KeyedPerKeyWithHotKeys is PerKeyWithHotKeys for a KeyedCombineFn
func KeyedPerKeyWithHotKeys[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn KeyedCombineFn[K, VI, VA, VO], spread func(K) int, opts ...Option) (*pipeline.Collection[typex.KV[K, VO]], error) {
	return perKeyWithHotKeys(col, fn, spread, newOptions("Combine.PerKeyWithHotKeys", opts))
}

func perKeyWithHotKeys[K, VI, VA, VO any](col *pipeline.Collection[typex.KV[K, VI]], fn KeyedCombineFn[K, VI, VA, VO], spread func(K) int, o *options) (*pipeline.Collection[typex.KV[K, VO]], error) {
	p := col.Pipeline()
	kc, vc, err := kvCoders(o.name, col)
	if err != nil {
		return nil, err
	}
	accCoder, err := accumulatorCoderFor(fn, o, p.Registry(), kc, vc)
	if err != nil {
		return nil, err
	}
	outCoder, err := outputCoderFor(fn, o, p.Registry(), kc, vc)
	if err != nil {
		return nil, err
	}

	split := pipeline.ParDo(o.name+"/Split", col, func() pipeline.DoFn[typex.KV[K, VI], routed[K, VI]] {
		return newSplitHotKeysFn[K, VI](spread, kc)
	}, nil)
	hot := pipeline.ParDo(o.name+"/Hot", split, func() pipeline.DoFn[routed[K, VI], typex.KV[ShardKey[K], VI]] {
		return hotFn[K, VI]{}
	}, coder.Coder[typex.KV[ShardKey[K], VI]](coder.KV(ShardKeyCoder(kc), vc)))
	cold := pipeline.ParDo(o.name+"/Cold", split, func() pipeline.DoFn[routed[K, VI], typex.KV[K, VI]] {
		return coldFn[K, VI]{}
	}, coder.Coder[typex.KV[K, VI]](coder.KV(kc, vc)))

	// phase 1 combines each shard, but does not extract
	partial, err := perKey[ShardKey[K], VI, VA, VA](hot, &hotPreCombineFn[K, VI, VA, VO]{fn: fn}, o.step("PreCombine", accCoder, accCoder))
	if err != nil {
		return nil, err
	}
	unsharded := pipeline.Map(o.name+"/StripShard", partial, func(kv typex.KV[ShardKey[K], VA]) (typex.KV[K, VA], error) {
		return typex.NewKV(kv.Key.Key, kv.Value), nil
	}, coder.Coder[typex.KV[K, VA]](coder.KV(kc, accCoder)))
	// phase 2 merges the partial accumulators of each key
	hotOut, err := perKey[K, VA, *AccumulatorList[VA], VO](unsharded, &hotPostCombineFn[K, VI, VA, VO]{fn: fn}, o.step("PostCombine", AccumulatorListCoder(accCoder), outCoder))
	if err != nil {
		return nil, err
	}
	coldOut, err := perKey(cold, fn, o.step("ColdCombine", accCoder, outCoder))
	if err != nil {
		return nil, err
	}
	return pipeline.Flatten(o.name+"/Flatten", hotOut, coldOut)
}

// routed is an element of PerKeyWithHotKeys, tagged with the path it takes
type routed[K, VI any] struct {
	hot   bool
	key   ShardKey[K]
	value VI
}

// splitHotKeysFn routes the elements of sharded keys to the hot path,
// assigning shards round-robin. Counters are scoped to one bundle.
type splitHotKeysFn[K, VI any] struct {
	spread   func(K) int
	kc       coder.Coder[K]
	counters map[string]int
}

func newSplitHotKeysFn[K, VI any](spread func(K) int, kc coder.Coder[K]) *splitHotKeysFn[K, VI] {
	return &splitHotKeysFn[K, VI]{spread: spread, kc: kc, counters: make(map[string]int)}
}

func (s *splitHotKeysFn[K, VI]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[typex.KV[K, VI]], emit func(routed[K, VI])) error {
	key := elm.Elm.Key
	n := s.spread(key)
	if n <= 1 {
		emit(routed[K, VI]{key: ShardKey[K]{Key: key}, value: elm.Elm.Value})
		return nil
	}
	buf, err := coder.Marshal(s.kc, key)
	if err != nil {
		return err
	}
	counter := s.counters[string(buf)]
	s.counters[string(buf)] = counter + 1
	emit(routed[K, VI]{hot: true, key: ShardKey[K]{Key: key, Shard: counter % n}, value: elm.Elm.Value})
	return nil
}

type hotFn[K, VI any] struct{}

func (hotFn[K, VI]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[routed[K, VI]], emit func(typex.KV[ShardKey[K], VI])) error {
	if elm.Elm.hot {
		emit(typex.NewKV(elm.Elm.key, elm.Elm.value))
	}
	return nil
}

type coldFn[K, VI any] struct{}

func (coldFn[K, VI]) ProcessElement(_ context.Context, elm pipeline.WindowedValue[routed[K, VI]], emit func(typex.KV[K, VI])) error {
	if !elm.Elm.hot {
		emit(typex.NewKV(elm.Elm.key.Key, elm.Elm.value))
	}
	return nil
}

// hotPreCombineFn combines the values of one shard of a key, outputting the accumulator itself
type hotPreCombineFn[K, VI, VA, VO any] struct {
	fn KeyedCombineFn[K, VI, VA, VO]
}

func (h *hotPreCombineFn[K, VI, VA, VO]) CreateAccumulator(sk ShardKey[K]) VA {
	return h.fn.CreateAccumulator(sk.Key)
}

func (h *hotPreCombineFn[K, VI, VA, VO]) AddInput(sk ShardKey[K], acc VA, input VI) error {
	return h.fn.AddInput(sk.Key, acc, input)
}

func (h *hotPreCombineFn[K, VI, VA, VO]) MergeAccumulators(sk ShardKey[K], accs []VA) (VA, error) {
	return h.fn.MergeAccumulators(sk.Key, accs)
}

func (h *hotPreCombineFn[K, VI, VA, VO]) ExtractOutput(_ ShardKey[K], acc VA) (VA, error) {
	return acc, nil
}

// AccumulatorList is the accumulator of the second phase of
// PerKeyWithHotKeys. It holds at most one partial accumulator, into which
// every other partial accumulator is merged as it arrives.
type AccumulatorList[VA any] struct {
	Accs []VA
}

// AccumulatorListCoder returns a Coder for AccumulatorLists of accumulators encoded by acc
func AccumulatorListCoder[VA any](acc coder.Coder[VA]) coder.Coder[*AccumulatorList[VA]] {
	return coder.Delegate[*AccumulatorList[VA], []VA](coder.Iterable(acc),
		func(l *AccumulatorList[VA]) ([]VA, error) { return l.Accs, nil },
		func(accs []VA) (*AccumulatorList[VA], error) { return &AccumulatorList[VA]{Accs: accs}, nil },
	)
}

// hotPostCombineFn merges the partial accumulators of a hot key
type hotPostCombineFn[K, VI, VA, VO any] struct {
	fn KeyedCombineFn[K, VI, VA, VO]
}

func (h *hotPostCombineFn[K, VI, VA, VO]) CreateAccumulator(K) *AccumulatorList[VA] {
	return &AccumulatorList[VA]{}
}

func (h *hotPostCombineFn[K, VI, VA, VO]) AddInput(key K, list *AccumulatorList[VA], partial VA) error {
	if len(list.Accs) == 0 {
		list.Accs = append(list.Accs, partial)
		return nil
	}
	merged, err := h.fn.MergeAccumulators(key, []VA{list.Accs[0], partial})
	if err != nil {
		return err
	}
	list.Accs[0] = merged
	return nil
}

func (h *hotPostCombineFn[K, VI, VA, VO]) MergeAccumulators(key K, lists []*AccumulatorList[VA]) (*AccumulatorList[VA], error) {
	var accs []VA
	for _, l := range lists {
		accs = append(accs, l.Accs...)
	}
	if len(accs) == 0 {
		return &AccumulatorList[VA]{}, nil
	}
	merged, err := h.fn.MergeAccumulators(key, accs)
	if err != nil {
		return nil, err
	}
	return &AccumulatorList[VA]{Accs: []VA{merged}}, nil
}

func (h *hotPostCombineFn[K, VI, VA, VO]) ExtractOutput(key K, list *AccumulatorList[VA]) (VO, error) {
	acc, err := mergeKeyedOrCreate(h.fn, key, list.Accs)
	if err != nil {
		var zero VO
		return zero, err
	}
	return h.fn.ExtractOutput(key, acc)
}
