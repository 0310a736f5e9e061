// Package pipeline is a small local runner for collections of windowed
// values. It provides the collaborators the combine transforms are built
// upon: element-wise processing in parallel bundles, grouping by key and
// window through a byte-level shuffle, and side-input views.
//
// Collections are evaluated lazily, at most once, the first time they are
// read. Construction errors (such as a collection whose coder does not have
// the shape a transform requires) are returned when a transform is applied,
// never during evaluation.
package pipeline

import (
	"github.com/docker/docker/pkg/locker"
	"github.com/go-sif/combine/coder"
	"github.com/go-sif/combine/internal/shuffle"
	"github.com/go-sif/combine/internal/stats"
	"github.com/go-sif/combine/logging"
	"github.com/gofrs/uuid"
)

// Pipeline owns the configuration shared by a graph of Collections
type Pipeline struct {
	id         uuid.UUID
	opts       *Options
	registry   *coder.Registry
	logger     *logging.Logger
	compressor shuffle.Compressor
	views      *locker.Locker
	stats      *stats.RunStatistics
}

// StageStatistics describes the work done by one named stage of a Pipeline
type StageStatistics = stats.StageStatistics

// New produces a Pipeline configured by opts, which may be nil. Settings
// left unset take their defaults, and $COMBINE_PARALLELISM and
// $COMBINE_BUNDLE_SIZE override opts.
func New(opts *Options) (*Pipeline, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts = CloneOptions(opts)
	if err := applyEnvironment(opts); err != nil {
		return nil, err
	}
	ensureDefaultOptionsValues(opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	compressor, err := shuffle.NewCompressor(opts.ShuffleCompression)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		compressor.Destroy()
		return nil, err
	}
	return &Pipeline{
		id:         id,
		opts:       opts,
		registry:   coder.NewRegistry(),
		logger:     logging.New(logging.StringToLogLevel(opts.LogLevel)),
		compressor: compressor,
		views:      locker.New(),
		stats:      stats.New(),
	}, nil
}

// ID returns the unique identifier of this Pipeline
func (p *Pipeline) ID() string {
	return p.id.String()
}

// Options returns a copy of the Options of this Pipeline
func (p *Pipeline) Options() *Options {
	return CloneOptions(p.opts)
}

// Registry returns the coder Registry used to infer coders for this Pipeline
func (p *Pipeline) Registry() *coder.Registry {
	return p.registry
}

// Logger returns the Logger of this Pipeline
func (p *Pipeline) Logger() *logging.Logger {
	return p.logger
}

// SetLogger replaces the Logger of this Pipeline
func (p *Pipeline) SetLogger(l *logging.Logger) {
	p.logger = l
}

// Stats returns the statistics of every stage evaluated so far, ordered by stage name
func (p *Pipeline) Stats() []StageStatistics {
	return p.stats.GetStages()
}

// Close releases the resources held by this Pipeline. Collections of a closed
// Pipeline which have not yet been evaluated may no longer be read.
func (p *Pipeline) Close() {
	p.compressor.Destroy()
}
