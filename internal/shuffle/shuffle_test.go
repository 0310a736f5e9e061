package shuffle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func records(writer int, n int) []Record {
	rs := make([]Record, n)
	for i := range rs {
		rs[i] = Record{
			Window: []byte{0},
			Key:    []byte(fmt.Sprintf("key-%d", i%3)),
			Value:  []byte(fmt.Sprintf("%d-%d", writer, i)),
		}
	}
	return rs
}

func TestShuffleGroups(t *testing.T) {
	for _, name := range []string{LZ4, Zstd, Snappy, None} {
		t.Run(name, func(t *testing.T) {
			compressor, err := NewCompressor(name)
			require.Nil(t, err)
			defer compressor.Destroy()
			s := New(&Config{Buckets: 4, Parallelism: 2, Compressor: compressor}, 2)
			require.Nil(t, s.Write(0, records(0, 6)))
			require.Nil(t, s.Write(1, records(1, 3)))
			groups, err := s.Groups(context.Background())
			require.Nil(t, err)
			require.Len(t, groups, 3)
			byKey := make(map[string][]string)
			for _, g := range groups {
				require.Equal(t, []byte{0}, g.Window)
				for _, v := range g.Values {
					byKey[string(g.Key)] = append(byKey[string(g.Key)], string(v))
				}
			}
			// values keep writer order
			require.Equal(t, []string{"0-0", "0-3", "1-0"}, byKey["key-0"])
			require.Equal(t, []string{"0-1", "0-4", "1-1"}, byKey["key-1"])
			require.Equal(t, []string{"0-2", "0-5", "1-2"}, byKey["key-2"])
		})
	}
}

func TestShuffleSeparatesWindows(t *testing.T) {
	s := New(&Config{Buckets: 2}, 1)
	require.Nil(t, s.Write(0, []Record{
		{Window: []byte{1, 2}, Key: []byte("k"), Value: []byte("a")},
		{Window: []byte{1, 4}, Key: []byte("k"), Value: []byte("b")},
		{Window: []byte{1, 2}, Key: []byte("k"), Value: []byte("c")},
	}))
	require.Greater(t, s.Size(), int64(0))
	groups, err := s.Groups(context.Background())
	require.Nil(t, err)
	require.Len(t, groups, 2)
}

func TestShuffleEmpty(t *testing.T) {
	s := New(&Config{Buckets: 3, Parallelism: 3}, 0)
	require.Equal(t, int64(0), s.Size())
	groups, err := s.Groups(context.Background())
	require.Nil(t, err)
	require.Empty(t, groups)
}

func TestShuffleWriterOutOfRange(t *testing.T) {
	s := New(&Config{Buckets: 1}, 1)
	require.NotNil(t, s.Write(1, nil))
}

func TestShuffleCancelled(t *testing.T) {
	s := New(&Config{Buckets: 8, Parallelism: 1}, 1)
	require.Nil(t, s.Write(0, records(0, 10)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Groups(ctx)
	require.NotNil(t, err)
}

func TestUnknownCompressor(t *testing.T) {
	_, err := NewCompressor("brotli")
	require.NotNil(t, err)
}
