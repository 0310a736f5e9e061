package combine

// A CombineFn reduces a collection of VI to a single VO, by way of a mutable
// accumulator VA.
//
// The runtime may split the inputs for one key and window into arbitrarily
// many batches, create an accumulator per batch, add each input to the
// accumulator of its batch, and merge the resulting accumulators in any order
// and tree shape before extracting the output. A CombineFn must therefore
// implement an associative, commutative operation: the result may not depend
// on batch boundaries or merge order.
//
// A CombineFn is shared read-only by every worker and must not be mutated
// once constructed. Accumulators are never shared: each call receives the one
// accumulator it may touch.
type CombineFn[VI, VA, VO any] interface {
	// CreateAccumulator returns a fresh, empty accumulator. It is the only way
	// accumulators come into existence.
	CreateAccumulator() VA
	// AddInput adds input to acc, mutating acc in place
	AddInput(acc VA, input VI) error
	// MergeAccumulators returns an accumulator representing the union of accs.
	// It may mutate and return any of accs, so callers must discard all of
	// accs once it returns. accs is never empty.
	MergeAccumulators(accs []VA) (VA, error)
	// ExtractOutput returns the result held by acc. It is called at most once
	// per accumulator, after which acc is discarded.
	ExtractOutput(acc VA) (VO, error)
}

// Apply reduces inputs directly, without distribution: it creates one
// accumulator, adds every input to it, and extracts the output. Apply of an
// empty slice yields the combiner's output for empty input.
func Apply[VI, VA, VO any](fn CombineFn[VI, VA, VO], inputs []VI) (VO, error) {
	acc := fn.CreateAccumulator()
	for _, in := range inputs {
		if err := fn.AddInput(acc, in); err != nil {
			var zero VO
			return zero, err
		}
	}
	return fn.ExtractOutput(acc)
}
