// Package combine reduces collections of values to one output per key and
// window, using associative, commutative operators.
//
// A CombineFn describes a reduction as four operations over a mutable
// accumulator: create, add an input, merge accumulators, and extract the
// output. Because the operator is associative and commutative, a runner may
// split the inputs of one key into any number of batches, accumulate each
// separately, and merge the partial results in any order and tree shape.
//
// Specializations cover common shapes: BinaryCombineFn and ScalarCombineFn
// for binary operators, AccumulatingCombineFn for accumulator types which
// implement their own operations, and SimpleCombineFn for functions which
// reduce a slice of values.
//
// The transforms apply a CombineFn to a pipeline.Collection:
//
//   - Globally reduces every element of each window, optionally emitting a
//     default for an empty input. GloballyAsSingletonView exposes the result
//     as a side input.
//   - PerKey groups by key and window, then reduces each group.
//   - PerKeyWithHotKeys shards the values of heavily loaded keys, reducing
//     each shard before merging the partial results per key.
//   - GroupedValues reduces already grouped (key, values) pairs.
package combine
