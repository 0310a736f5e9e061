package coder

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/go-sif/combine/errors"
	"github.com/go-sif/combine/typex"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func roundTrip[T any](t *testing.T, c Coder[T], v T) T {
	t.Helper()
	buf, err := Marshal(c, v)
	require.NoError(t, err)
	out, err := Unmarshal(c, buf)
	require.NoError(t, err)
	return out
}

func TestBuiltinCoders(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		require.Equal(t, v, roundTrip(t, Int64(), v))
		require.Equal(t, v, roundTrip(t, FixedInt64(), v))
	}
	for _, v := range []int32{0, 7, -7, math.MaxInt32, math.MinInt32} {
		require.Equal(t, v, roundTrip(t, Int32(), v))
		require.Equal(t, v, roundTrip(t, FixedInt32(), v))
	}
	require.Equal(t, -42, roundTrip(t, Int(), -42))
	require.Equal(t, uint64(math.MaxUint64), roundTrip(t, Uint64(), math.MaxUint64))
	require.Equal(t, 3.25, roundTrip(t, Float64(), 3.25))
	require.Equal(t, float32(-1.5), roundTrip(t, Float32(), -1.5))
	require.True(t, roundTrip(t, Bool(), true))
	require.Equal(t, "héllo", roundTrip(t, String(), "héllo"))
	require.Equal(t, []byte{1, 2, 3}, roundTrip(t, Bytes(), []byte{1, 2, 3}))
	require.Equal(t, typex.Unit{}, roundTrip(t, Unit(), typex.Unit{}))
}

func TestFixedWidth(t *testing.T) {
	buf, err := Marshal(FixedInt64(), 1)
	require.NoError(t, err)
	require.Len(t, buf, 8)
	buf, err = Marshal(FixedInt32(), 1)
	require.NoError(t, err)
	require.Len(t, buf, 4)
}

func TestStructuredCoders(t *testing.T) {
	c := KV[string, []int64](String(), Iterable(Int64()))
	kv := typex.NewKV("k", []int64{1, 2, 3})
	require.Equal(t, kv, roundTrip[typex.KV[string, []int64]](t, c, kv))

	var shape interface{} = c
	components, ok := shape.(KVComponents[string, []int64])
	require.True(t, ok)
	_, ok = components.ValueCoder().(IterableComponents[int64])
	require.True(t, ok)

	units := Iterable(Unit())
	require.Len(t, roundTrip[[]typex.Unit](t, units, make([]typex.Unit, 5)), 5)
}

func TestDelegateAndGob(t *testing.T) {
	type cell struct{ V int64 }
	c := Delegate(Int64(),
		func(c *cell) (int64, error) { return c.V, nil },
		func(v int64) (*cell, error) { return &cell{V: v}, nil })
	require.Equal(t, &cell{V: 9}, roundTrip[*cell](t, c, &cell{V: 9}))

	type record struct {
		Name  string
		Count int
	}
	require.Equal(t, record{"a", 2}, roundTrip(t, Gob[record](), record{"a", 2}))
}

func TestTruncated(t *testing.T) {
	_, _, err := String().Decode([]byte{5, 'a'})
	require.Error(t, err)
	var te TruncatedError
	require.True(t, stderrors.As(err, &te))
	_, err = Unmarshal(Int64(), []byte{2, 0})
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c, err := Lookup[int64](r)
	require.NoError(t, err)
	require.Equal(t, int64(5), roundTrip(t, c, 5))

	type custom struct{ A int }
	_, err = Lookup[custom](r)
	var cie errors.CoderInferenceError
	require.True(t, stderrors.As(err, &cie))
	require.Contains(t, cie.Error(), "custom")

	Register(r, Gob[custom]())
	require.True(t, Has[custom](r))

	kvc, err := LookupKV[string, float64](r)
	require.NoError(t, err)
	require.Equal(t, typex.NewKV("x", 1.5), roundTrip[typex.KV[string, float64]](t, kvc, typex.NewKV("x", 1.5)))
}

func TestIterableLengthBeyondInput(t *testing.T) {
	buf := protowire.AppendVarint(nil, 1<<62)
	_, _, err := Iterable(Unit()).Decode(buf)
	require.Error(t, err)

	units := make([]typex.Unit, 300)
	require.Len(t, roundTrip[[]typex.Unit](t, Iterable(Unit()), units), 300)
}
