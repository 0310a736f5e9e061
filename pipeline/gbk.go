package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/internal/shuffle"
	"github.com/go-sif/combine/internal/util"
	"github.com/go-sif/combine/typex"
	"github.com/go-sif/combine/window"
	"golang.org/x/sync/errgroup"
)

// GroupByKey groups the values of col by key and window. Each output element
// is in the window of its group and is timestamped at the end of that window.
// The coder of col must be a KV coder, whose key encoding is deterministic.
func GroupByKey[K, V any](col *Collection[typex.KV[K, V]]) (*Collection[typex.KV[K, []V]], error) {
	const name = "GroupByKey"
	kvc, ok := col.coder.(coder.KVComponents[K, V])
	if !ok {
		return nil, errors.ConfigurationError{
			Transform:  name,
			Problem:    fmt.Sprintf("%s must have a KV coder, but has %T", col, col.coder),
			Suggestion: "set a KV coder on the input with SetCoder",
		}
	}
	keyCoder, valueCoder := kvc.KeyCoder(), kvc.ValueCoder()
	out := coder.KV[K, []V](keyCoder, coder.Iterable(valueCoder))
	p := col.p
	return newCollection(p, name, coder.Coder[typex.KV[K, []V]](out), col.strategy, func(ctx context.Context) ([]WindowedValue[typex.KV[K, []V]], error) {
		in, err := col.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		bundles := util.Chunk(len(in), p.opts.BundleSize)
		s := shuffle.New(&shuffle.Config{
			Buckets:     p.opts.ShuffleBuckets,
			Parallelism: p.opts.Parallelism,
			Compressor:  p.compressor,
		}, len(bundles))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.opts.Parallelism)
		for i, b := range bundles {
			i, b := i, b
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				bundleStart := time.Now()
				records, err := encodeRecords(keyCoder, valueCoder, in[b[0]:b[1]])
				if err != nil {
					return err
				}
				err = s.Write(i, records)
				p.stats.EndBundle(name, bundleStart, len(records))
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		shuffleStart := time.Now()
		groups, err := s.Groups(ctx)
		if err != nil {
			return nil, err
		}
		size := s.Size()
		p.stats.EndShuffle(name, shuffleStart, size)
		p.logger.Debugf(ctx, "%s shuffled %d elements (%s) into %d groups", name, len(in), humanize.Bytes(uint64(size)), len(groups))
		out, err := decodeGroups(keyCoder, valueCoder, groups)
		if err != nil {
			return nil, err
		}
		p.stats.EndStage(name, start)
		return out, nil
	}), nil
}

func encodeRecords[K, V any](keyCoder coder.Coder[K], valueCoder coder.Coder[V], in []WindowedValue[typex.KV[K, V]]) ([]shuffle.Record, error) {
	records := make([]shuffle.Record, len(in))
	for i, wv := range in {
		w, err := window.Encode(nil, wv.Window)
		if err != nil {
			return nil, err
		}
		k, err := coder.Marshal(keyCoder, wv.Elm.Key)
		if err != nil {
			return nil, fmt.Errorf("Unable to encode key %v: %w", wv.Elm.Key, err)
		}
		v, err := coder.Marshal(valueCoder, wv.Elm.Value)
		if err != nil {
			return nil, fmt.Errorf("Unable to encode value %v: %w", wv.Elm.Value, err)
		}
		records[i] = shuffle.Record{Window: w, Key: k, Value: v}
	}
	return records, nil
}

func decodeGroups[K, V any](keyCoder coder.Coder[K], valueCoder coder.Coder[V], groups []shuffle.Group) ([]WindowedValue[typex.KV[K, []V]], error) {
	out := make([]WindowedValue[typex.KV[K, []V]], len(groups))
	for i, g := range groups {
		w, _, err := window.Decode(g.Window)
		if err != nil {
			return nil, err
		}
		k, err := coder.Unmarshal(keyCoder, g.Key)
		if err != nil {
			return nil, err
		}
		values := make([]V, len(g.Values))
		for j, buf := range g.Values {
			if values[j], err = coder.Unmarshal(valueCoder, buf); err != nil {
				return nil, err
			}
		}
		out[i] = WindowedValue[typex.KV[K, []V]]{
			Elm:       typex.NewKV(k, values),
			Timestamp: w.MaxTimestamp(),
			Window:    w,
		}
	}
	return out, nil
}
