// Package testing contains tools for testing CombineFns and the pipelines
// which use them.
package testing

import (
	"fmt"
	"math/rand"

	"github.com/go-sif/combine"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/pipeline"
	"github.com/google/go-cmp/cmp"
)

// LocalPipeline creates a Pipeline which processes tiny bundles over several
// shuffle buckets, so that every combine is split into many batches and
// merged. Fields of opts which are set are kept.
func LocalPipeline(opts *pipeline.Options) (*pipeline.Pipeline, error) {
	if opts == nil {
		opts = &pipeline.Options{}
	}
	opts = pipeline.CloneOptions(opts)
	if opts.BundleSize == 0 {
		opts.BundleSize = 2
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = 4
	}
	if opts.ShuffleBuckets == 0 {
		opts.ShuffleBuckets = 3
	}
	if opts.MergeFanIn == 0 {
		opts.MergeFanIn = 2
	}
	return pipeline.New(opts)
}

// MergeChecker verifies that a CombineFn produces the same output no matter
// how its inputs are split into batches and how the resulting accumulators
// are merged
type MergeChecker[VI, VA, VO any] struct {
	Fn      combine.CombineFn[VI, VA, VO]
	Coder   coder.Coder[VA] // if set, every accumulator is encoded and decoded before it is merged
	Trials  int             // the number of random partitions to try, 10 if unset
	Rand    *rand.Rand      // the source of randomness, seeded with 1 if unset
	CmpOpts []cmp.Option    // options for comparing outputs
}

// Check returns an error describing the first partition of inputs whose
// output differs from that of combine.Apply
func (m *MergeChecker[VI, VA, VO]) Check(inputs []VI) error {
	trials := m.Trials
	if trials == 0 {
		trials = 10
	}
	rnd := m.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	expected, err := combine.Apply(m.Fn, inputs)
	if err != nil {
		return fmt.Errorf("Unable to combine inputs directly: %w", err)
	}
	for trial := 0; trial < trials; trial++ {
		got, err := m.combineRandomly(rnd, inputs)
		if err != nil {
			return fmt.Errorf("Trial %d: %w", trial, err)
		}
		if diff := cmp.Diff(expected, got, m.CmpOpts...); len(diff) > 0 {
			return fmt.Errorf("Trial %d: output depends on batching or merge order (-direct +distributed):\n%s", trial, diff)
		}
	}
	return nil
}

func (m *MergeChecker[VI, VA, VO]) combineRandomly(rnd *rand.Rand, inputs []VI) (VO, error) {
	var zero VO
	shuffled := make([]VI, len(inputs))
	copy(shuffled, inputs)
	rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	// accumulate random batches, including empty ones
	var accs []VA
	for start := 0; start <= len(shuffled); {
		end := start + rnd.Intn(len(shuffled)-start+1)
		acc := m.Fn.CreateAccumulator()
		for _, in := range shuffled[start:end] {
			if err := m.Fn.AddInput(acc, in); err != nil {
				return zero, err
			}
		}
		acc, err := m.roundTrip(acc)
		if err != nil {
			return zero, err
		}
		accs = append(accs, acc)
		if end == len(shuffled) {
			break
		}
		start = end
	}

	// merge random groups until one accumulator remains
	for len(accs) > 1 {
		rnd.Shuffle(len(accs), func(i, j int) { accs[i], accs[j] = accs[j], accs[i] })
		k := 1 + rnd.Intn(len(accs))
		merged, err := m.Fn.MergeAccumulators(accs[:k])
		if err != nil {
			return zero, err
		}
		if merged, err = m.roundTrip(merged); err != nil {
			return zero, err
		}
		accs = append([]VA{merged}, accs[k:]...)
	}
	return m.Fn.ExtractOutput(accs[0])
}

func (m *MergeChecker[VI, VA, VO]) roundTrip(acc VA) (VA, error) {
	if m.Coder == nil {
		return acc, nil
	}
	buf, err := coder.Marshal(m.Coder, acc)
	if err != nil {
		return acc, fmt.Errorf("Unable to encode accumulator: %w", err)
	}
	return coder.Unmarshal(m.Coder, buf)
}
