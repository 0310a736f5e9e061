// Package shuffle co-locates encoded values by (window, key). Writers each
// own a slot and may write concurrently; records are bucketed by hash,
// framed, and compressed per bucket, then decoded and grouped bucket by
// bucket with bounded parallelism.
package shuffle

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"google.golang.org/protobuf/encoding/protowire"
)

// Record is a single encoded value written to a Shuffle
type Record struct {
	Window []byte // deterministic encoding of the window of the value
	Key    []byte // deterministic encoding of the key of the value
	Value  []byte
}

// Group holds every value written to a Shuffle under one (window, key)
type Group struct {
	Window []byte
	Key    []byte
	Values [][]byte
}

// Config configures a Shuffle
type Config struct {
	Buckets     int        // Buckets is the number of hash buckets records are partitioned into
	Parallelism int        // Parallelism bounds the number of buckets decoded at once
	Compressor  Compressor // Compressor compresses each bucket of each writer
}

// Shuffle co-locates the records written by a fixed number of writers
type Shuffle struct {
	conf *Config
	// spills[bucket][writer] holds the compressed, framed records of one writer for one bucket
	spills [][][]byte
}

// New produces a Shuffle for the given number of writers
func New(conf *Config, writers int) *Shuffle {
	if conf.Buckets < 1 {
		conf.Buckets = 1
	}
	if conf.Parallelism < 1 {
		conf.Parallelism = 1
	}
	if conf.Compressor == nil {
		conf.Compressor = NewLZ4Compressor()
	}
	spills := make([][][]byte, conf.Buckets)
	for i := range spills {
		spills[i] = make([][]byte, writers)
	}
	return &Shuffle{conf: conf, spills: spills}
}

// Size returns the number of compressed bytes written so far. It must not be
// called concurrently with Write.
func (s *Shuffle) Size() int64 {
	var n int64
	for _, bucket := range s.spills {
		for _, spill := range bucket {
			n += int64(len(spill))
		}
	}
	return n
}

// Bucket returns the bucket a (window, key) is assigned to
func (s *Shuffle) Bucket(window []byte, key []byte) int {
	h := xxhash.New()
	h.Write(window)
	h.Write(key)
	return int(h.Sum64() % uint64(s.conf.Buckets))
}

// Write writes the records of a single writer. Different writers may call
// Write concurrently, but each writer may only call it once.
func (s *Shuffle) Write(writer int, records []Record) error {
	if writer < 0 || writer >= len(s.spills[0]) {
		return fmt.Errorf("Shuffle writer %d is out of range", writer)
	}
	framed := make([][]byte, s.conf.Buckets)
	for _, r := range records {
		b := s.Bucket(r.Window, r.Key)
		buf := protowire.AppendBytes(framed[b], r.Window)
		buf = protowire.AppendBytes(buf, r.Key)
		framed[b] = protowire.AppendBytes(buf, r.Value)
	}
	for b, buf := range framed {
		if len(buf) == 0 {
			continue
		}
		compressed, err := s.conf.Compressor.Compress(buf)
		if err != nil {
			return err
		}
		s.spills[b][writer] = compressed
	}
	return nil
}

// Groups decodes every bucket and assembles its Groups. Groups are ordered by
// bucket, then by the first appearance of their (window, key) in writer order,
// and values within a Group keep writer order.
func (s *Shuffle) Groups(ctx context.Context) ([]Group, error) {
	results := make([][]Group, s.conf.Buckets)
	limit := semaphore.NewWeighted(int64(s.conf.Parallelism))
	g, gctx := errgroup.WithContext(ctx)
	for b := range s.spills {
		b := b
		if err := limit.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer limit.Release(1)
			groups, err := s.assemble(s.spills[b])
			if err != nil {
				return fmt.Errorf("Unable to assemble shuffle bucket %d: %w", b, err)
			}
			results[b] = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []Group
	for _, groups := range results {
		all = append(all, groups...)
	}
	return all, nil
}

func (s *Shuffle) assemble(spills [][]byte) ([]Group, error) {
	var groups []Group
	index := make(map[string]int)
	for _, compressed := range spills {
		if len(compressed) == 0 {
			continue
		}
		buf, err := s.conf.Compressor.Decompress(compressed)
		if err != nil {
			return nil, err
		}
		for len(buf) > 0 {
			var fields [3][]byte
			for i := range fields {
				v, n := protowire.ConsumeBytes(buf)
				if n < 0 {
					return nil, fmt.Errorf("Unable to decode shuffle record: %w", protowire.ParseError(n))
				}
				fields[i] = v
				buf = buf[n:]
			}
			// window encodings are self-delimiting, so window+key is unambiguous
			id := string(fields[0]) + string(fields[1])
			i, ok := index[id]
			if !ok {
				i = len(groups)
				index[id] = i
				groups = append(groups, Group{Window: fields[0], Key: fields[1]})
			}
			groups[i].Values = append(groups[i].Values, fields[2])
		}
	}
	return groups, nil
}
