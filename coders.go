package combine

import (
	"github.com/go-sif/combine/coder"
)

// AccumulatorCoderProvider is implemented by CombineFns which know how to
// encode their own accumulators, given the coder of their inputs
type AccumulatorCoderProvider[VI, VA any] interface {
	AccumulatorCoder(reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[VA], error)
}

// OutputCoderProvider is implemented by CombineFns which know how to encode
// their own outputs, given the coder of their inputs
type OutputCoderProvider[VI, VO any] interface {
	OutputCoder(reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[VO], error)
}

// KeyedAccumulatorCoderProvider is the KeyedCombineFn counterpart of AccumulatorCoderProvider
type KeyedAccumulatorCoderProvider[K, VI, VA any] interface {
	KeyedAccumulatorCoder(reg *coder.Registry, key coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VA], error)
}

// KeyedOutputCoderProvider is the KeyedCombineFn counterpart of OutputCoderProvider
type KeyedOutputCoderProvider[K, VI, VO any] interface {
	KeyedOutputCoder(reg *coder.Registry, key coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VO], error)
}

// AccumulatorCoder derives the coder for fn's accumulators. A CombineFn
// implementing AccumulatorCoderProvider is asked directly; otherwise the
// registry default for VA is used. Failure is a CoderInferenceError.
func AccumulatorCoder[VI, VA, VO any](fn CombineFn[VI, VA, VO], reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[VA], error) {
	if p, ok := fn.(AccumulatorCoderProvider[VI, VA]); ok {
		return p.AccumulatorCoder(reg, in)
	}
	return coder.Lookup[VA](reg)
}

// OutputCoder derives the coder for fn's outputs, in the manner of AccumulatorCoder
func OutputCoder[VI, VA, VO any](fn CombineFn[VI, VA, VO], reg *coder.Registry, in coder.Coder[VI]) (coder.Coder[VO], error) {
	if p, ok := fn.(OutputCoderProvider[VI, VO]); ok {
		return p.OutputCoder(reg, in)
	}
	return coder.Lookup[VO](reg)
}

// KeyedAccumulatorCoder derives the coder for a KeyedCombineFn's accumulators
func KeyedAccumulatorCoder[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], reg *coder.Registry, key coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VA], error) {
	if p, ok := fn.(KeyedAccumulatorCoderProvider[K, VI, VA]); ok {
		return p.KeyedAccumulatorCoder(reg, key, in)
	}
	return coder.Lookup[VA](reg)
}

// KeyedOutputCoder derives the coder for a KeyedCombineFn's outputs
func KeyedOutputCoder[K, VI, VA, VO any](fn KeyedCombineFn[K, VI, VA, VO], reg *coder.Registry, key coder.Coder[K], in coder.Coder[VI]) (coder.Coder[VO], error) {
	if p, ok := fn.(KeyedOutputCoderProvider[K, VI, VO]); ok {
		return p.KeyedOutputCoder(reg, key, in)
	}
	return coder.Lookup[VO](reg)
}
