package stats

import (
	"sort"
	"sync"
	"time"
)

const statisticRollingWindows = 5

// RunStatistics contains statistics about the stages evaluated by a pipeline,
// keyed by stage name. It is safe for concurrent use.
type RunStatistics struct {
	lock      sync.Mutex
	startTime time.Time
	stages    map[string]*stageStatistics
}

type stageStatistics struct {
	elementsProcessed        int64
	bundlesProcessed         int64
	recentBundleRuntimes     []int64 // for rolling average of recent bundle processing times
	recentBundleRuntimesHead int
	stageRuntime             int64
	shuffleRuntime           int64
	shuffleBytes             int64
}

// StageStatistics is a snapshot of the statistics of one stage
type StageStatistics struct {
	Name                 string
	ElementsProcessed    int64
	BundlesProcessed     int64
	BundleProcessingTime time.Duration // rolling average over recent bundles
	StageRuntime         time.Duration // most recent evaluation of the stage
	ShuffleRuntime       time.Duration // zero for stages which do not shuffle
	ShuffleBytes         int64         // compressed bytes moved by the most recent shuffle, zero for stages which do not shuffle
}

// New starts tracking statistics
func New() *RunStatistics {
	return &RunStatistics{startTime: time.Now(), stages: make(map[string]*stageStatistics)}
}

func (rs *RunStatistics) stage(name string) *stageStatistics {
	s, ok := rs.stages[name]
	if !ok {
		s = &stageStatistics{recentBundleRuntimes: make([]int64, 0, statisticRollingWindows)}
		rs.stages[name] = s
	}
	return s
}

// EndBundle tracks the end of the processing of a bundle of numElements elements which began at start
func (rs *RunStatistics) EndBundle(name string, start time.Time, numElements int) {
	elapsed := time.Since(start).Nanoseconds()
	rs.lock.Lock()
	defer rs.lock.Unlock()
	s := rs.stage(name)
	if len(s.recentBundleRuntimes) < statisticRollingWindows {
		s.recentBundleRuntimes = append(s.recentBundleRuntimes, elapsed)
	} else {
		s.recentBundleRuntimes[s.recentBundleRuntimesHead] = elapsed
		s.recentBundleRuntimesHead = (s.recentBundleRuntimesHead + 1) % statisticRollingWindows
	}
	s.elementsProcessed += int64(numElements)
	s.bundlesProcessed++
}

// EndStage tracks the end of the evaluation of a stage which began at start
func (rs *RunStatistics) EndStage(name string, start time.Time) {
	elapsed := time.Since(start).Nanoseconds()
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.stage(name).stageRuntime = elapsed
}

// EndShuffle tracks the end of the shuffle portion of a stage which began at
// start, and which moved size compressed bytes
func (rs *RunStatistics) EndShuffle(name string, start time.Time, size int64) {
	elapsed := time.Since(start).Nanoseconds()
	rs.lock.Lock()
	defer rs.lock.Unlock()
	s := rs.stage(name)
	s.shuffleRuntime = elapsed
	s.shuffleBytes = size
}

// GetStartTime returns the time at which tracking began
func (rs *RunStatistics) GetStartTime() time.Time {
	return rs.startTime
}

// GetRuntime returns the time elapsed since tracking began
func (rs *RunStatistics) GetRuntime() time.Duration {
	return time.Since(rs.startTime)
}

// GetStages returns a snapshot of the statistics of every stage, ordered by name
func (rs *RunStatistics) GetStages() []StageStatistics {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	out := make([]StageStatistics, 0, len(rs.stages))
	for name, s := range rs.stages {
		var total int64
		for _, d := range s.recentBundleRuntimes {
			total += d
		}
		var avg int64
		if len(s.recentBundleRuntimes) > 0 {
			avg = total / int64(len(s.recentBundleRuntimes))
		}
		out = append(out, StageStatistics{
			Name:                 name,
			ElementsProcessed:    s.elementsProcessed,
			BundlesProcessed:     s.bundlesProcessed,
			BundleProcessingTime: time.Duration(avg),
			StageRuntime:         time.Duration(s.stageRuntime),
			ShuffleRuntime:       time.Duration(s.shuffleRuntime),
			ShuffleBytes:         s.shuffleBytes,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
