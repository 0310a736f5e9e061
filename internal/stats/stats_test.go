package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunStatistics(t *testing.T) {
	rs := New()
	start := time.Now().Add(-time.Millisecond)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs.EndBundle("Map", start, 3)
		}()
	}
	wg.Wait()
	rs.EndStage("Map", start)
	rs.EndShuffle("GroupByKey", start, 512)

	stages := rs.GetStages()
	require.Len(t, stages, 2)
	require.Equal(t, "GroupByKey", stages[0].Name)
	require.GreaterOrEqual(t, stages[0].ShuffleRuntime, time.Millisecond)
	require.Equal(t, int64(512), stages[0].ShuffleBytes)
	require.Equal(t, int64(0), stages[0].BundlesProcessed)
	require.Equal(t, "Map", stages[1].Name)
	require.Equal(t, int64(24), stages[1].ElementsProcessed)
	require.Equal(t, int64(8), stages[1].BundlesProcessed)
	require.GreaterOrEqual(t, stages[1].BundleProcessingTime, time.Millisecond)
	require.GreaterOrEqual(t, stages[1].StageRuntime, time.Millisecond)
	require.False(t, rs.GetStartTime().IsZero())
}

func TestShuffleBytesDefaultToZero(t *testing.T) {
	rs := New()
	rs.EndBundle("Map", time.Now(), 1)
	stages := rs.GetStages()
	require.Len(t, stages, 1)
	require.Equal(t, int64(0), stages[0].ShuffleBytes)
}
