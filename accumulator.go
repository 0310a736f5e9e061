package combine

// An Accumulator is a self-contained accumulator type, which knows how to add
// inputs to itself, merge other accumulators of its own type into itself, and
// produce its output. AccumulatingCombineFn derives a CombineFn from one.
//
// MergeAccumulator must be order-independent: merging a into b must yield the
// same output as merging b into a.
type Accumulator[VI, VA, VO any] interface {
	AddInput(input VI) error         // AddInput adds input to this Accumulator
	MergeAccumulator(other VA) error // MergeAccumulator merges other into this Accumulator
	ExtractOutput() (VO, error)      // ExtractOutput produces the result held by this Accumulator
}

// AccumulatingCombineFn is a CombineFn whose accumulators implement Accumulator
type AccumulatingCombineFn[VI any, VA Accumulator[VI, VA, VO], VO any] struct {
	create func() VA
}

// Accumulating returns an AccumulatingCombineFn which creates accumulators
// with create. Type arguments must be given explicitly:
//
//	fn := combine.Accumulating[int, *meanAcc, float64](newMeanAcc)
func Accumulating[VI any, VA Accumulator[VI, VA, VO], VO any](create func() VA) *AccumulatingCombineFn[VI, VA, VO] {
	return &AccumulatingCombineFn[VI, VA, VO]{create: create}
}

// CreateAccumulator returns a fresh accumulator
func (f *AccumulatingCombineFn[VI, VA, VO]) CreateAccumulator() VA {
	return f.create()
}

// AddInput delegates to acc.AddInput
func (f *AccumulatingCombineFn[VI, VA, VO]) AddInput(acc VA, input VI) error {
	return acc.AddInput(input)
}

// MergeAccumulators folds every one of accs into a fresh accumulator, in order
func (f *AccumulatingCombineFn[VI, VA, VO]) MergeAccumulators(accs []VA) (VA, error) {
	result := f.create()
	for _, acc := range accs {
		if err := result.MergeAccumulator(acc); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ExtractOutput delegates to acc.ExtractOutput
func (f *AccumulatingCombineFn[VI, VA, VO]) ExtractOutput(acc VA) (VO, error) {
	return acc.ExtractOutput()
}
