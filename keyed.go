package combine

import (
	"github.com/go-sif/combine/coder"
)

// A KeyedCombineFn is a CombineFn whose every operation also receives the key
// being reduced, so that accumulation may depend on the key (for example, a
// key-dependent default). The same associativity and commutativity
// requirements apply, per key.
type KeyedCombineFn[K, VI, VA, VO any] interface {
	CreateAccumulator(key K) VA                     // CreateAccumulator returns a fresh, empty accumulator for key
	AddInput(key K, acc VA, input VI) error         // AddInput adds input to acc, mutating acc in place
	MergeAccumulators(key K, accs []VA) (VA, error) // MergeAccumulators returns the union of accs, which must then be discarded
	ExtractOutput(key K, acc VA) (VO, error)        // ExtractOutput returns the result held by acc
}

// ApplyKeyed reduces inputs for a single key directly, without distribution
func ApplyKeyed[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], key K, inputs []VI) (VO, error) {
	acc := fn.CreateAccumulator(key)
	for _, in := range inputs {
		if err := fn.AddInput(key, acc, in); err != nil {
			var zero VO
			return zero, err
		}
	}
	return fn.ExtractOutput(key, acc)
}

// AsKeyedFn lifts fn to a KeyedCombineFn which ignores its key. Coder
// derivation is forwarded to fn; the key coder is accepted but unused.
//
// The key type must be given explicitly:
//
//	keyed := combine.AsKeyedFn[string](fn)
func AsKeyedFn[K, VI, VA, VO any](fn CombineFn[VI, VA, VO]) KeyedCombineFn[K, VI, VA, VO] {
	return &keyIgnoringFn[K, VI, VA, VO]{fn: fn}
}

// keyIgnoringFn forwards every call to an unkeyed CombineFn, dropping the key
type keyIgnoringFn[K, VI, VA, VO any] struct {
	fn CombineFn[VI, VA, VO]
}

func (k *keyIgnoringFn[K, VI, VA, VO]) CreateAccumulator(K) VA {
	return k.fn.CreateAccumulator()
}

func (k *keyIgnoringFn[K, VI, VA, VO]) AddInput(_ K, acc VA, input VI) error {
	return k.fn.AddInput(acc, input)
}

func (k *keyIgnoringFn[K, VI, VA, VO]) MergeAccumulators(_ K, accs []VA) (VA, error) {
	return k.fn.MergeAccumulators(accs)
}

func (k *keyIgnoringFn[K, VI, VA, VO]) ExtractOutput(_ K, acc VA) (VO, error) {
	return k.fn.ExtractOutput(acc)
}

func (k *keyIgnoringFn[K, VI, VA, VO]) KeyedAccumulatorCoder(reg *coder.Registry, _ coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VA], error) {
	return AccumulatorCoder(k.fn, reg, in)
}

func (k *keyIgnoringFn[K, VI, VA, VO]) KeyedOutputCoder(reg *coder.Registry, _ coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VO], error) {
	return OutputCoder(k.fn, reg, in)
}

// Unwrap returns the unkeyed CombineFn
func (k *keyIgnoringFn[K, VI, VA, VO]) Unwrap() CombineFn[VI, VA, VO] {
	return k.fn
}

// mergeKeyedOrCreate merges accs, or creates a fresh accumulator if there are none
func mergeKeyedOrCreate[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], key K, accs []VA) (VA, error) {
	if len(accs) == 0 {
		return fn.CreateAccumulator(key), nil
	}
	return fn.MergeAccumulators(key, accs)
}
