package pipeline

import (
	"fmt"
	"io/ioutil"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-sif/combine/internal/shuffle"
	"github.com/go-sif/combine/internal/util"
	"github.com/go-sif/combine/logging"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Options configure the local runner which evaluates a Pipeline
type Options struct {
	BundleSize         int    `yaml:"bundleSize"`         // the number of elements processed together by one DoFn instance
	Parallelism        int    `yaml:"parallelism"`        // the number of bundles processed at once
	ShuffleBuckets     int    `yaml:"shuffleBuckets"`     // the number of hash buckets used when grouping by key
	ShuffleCompression string `yaml:"shuffleCompression"` // one of "lz4", "zstd", "snappy" or "none"
	MergeFanIn         int    `yaml:"mergeFanIn"`         // the maximum number of accumulators merged at once by a lifted combine
	DisableLifting     bool   `yaml:"disableLifting"`     // iff true, combines always group values before combining them
	LogLevel           string `yaml:"logLevel"`           // one of "trace", "debug", "info", "warn", "error", "fatal"
}

// CloneOptions makes a copy of an Options
func CloneOptions(opts *Options) *Options {
	return &Options{
		BundleSize:         opts.BundleSize,
		Parallelism:        opts.Parallelism,
		ShuffleBuckets:     opts.ShuffleBuckets,
		ShuffleCompression: opts.ShuffleCompression,
		MergeFanIn:         opts.MergeFanIn,
		DisableLifting:     opts.DisableLifting,
		LogLevel:           opts.LogLevel,
	}
}

func ensureDefaultOptionsValues(opts *Options) {
	if opts.BundleSize == 0 {
		opts.BundleSize = 64
	}
	if opts.Parallelism == 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.ShuffleBuckets == 0 {
		opts.ShuffleBuckets = 16
	}
	if len(opts.ShuffleCompression) == 0 {
		opts.ShuffleCompression = shuffle.LZ4
	}
	if opts.MergeFanIn == 0 {
		opts.MergeFanIn = 8
	}
	if len(opts.LogLevel) == 0 {
		opts.LogLevel = logging.LogLevelToString(logging.InfoLevel)
	}
}

// applyEnvironment overrides Options from $COMBINE_PARALLELISM and $COMBINE_BUNDLE_SIZE
func applyEnvironment(opts *Options) error {
	var result *multierror.Error
	if v := os.Getenv("COMBINE_PARALLELISM"); len(v) > 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("$COMBINE_PARALLELISM=\"%s\" is not an integer", v))
		} else {
			opts.Parallelism = n
		}
	}
	if v := os.Getenv("COMBINE_BUNDLE_SIZE"); len(v) > 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("$COMBINE_BUNDLE_SIZE=\"%s\" is not an integer", v))
		} else {
			opts.BundleSize = n
		}
	}
	return formatted(result)
}

// Validate checks every setting, returning all problems found
func (o *Options) Validate() error {
	var result *multierror.Error
	if o.BundleSize < 1 {
		result = multierror.Append(result, fmt.Errorf("Options.BundleSize %d must be greater than 0", o.BundleSize))
	}
	if o.Parallelism < 1 {
		result = multierror.Append(result, fmt.Errorf("Options.Parallelism %d must be greater than 0", o.Parallelism))
	}
	if o.ShuffleBuckets < 1 {
		result = multierror.Append(result, fmt.Errorf("Options.ShuffleBuckets %d must be greater than 0", o.ShuffleBuckets))
	}
	if o.MergeFanIn < 2 {
		result = multierror.Append(result, fmt.Errorf("Options.MergeFanIn %d must be at least 2", o.MergeFanIn))
	}
	switch o.ShuffleCompression {
	case shuffle.LZ4, shuffle.Zstd, shuffle.Snappy, shuffle.None:
	default:
		result = multierror.Append(result, fmt.Errorf("Options.ShuffleCompression \"%s\" is unknown", o.ShuffleCompression))
	}
	if !strings.EqualFold(logging.LogLevelToString(logging.StringToLogLevel(o.LogLevel)), o.LogLevel) {
		result = multierror.Append(result, fmt.Errorf("Options.LogLevel \"%s\" is unknown", o.LogLevel))
	}
	return formatted(result)
}

// ParseOptions reads Options from YAML. Unset fields take their defaults.
func ParseOptions(data []byte) (*Options, error) {
	opts := &Options{}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("Unable to parse pipeline options: %w", err)
	}
	ensureDefaultOptionsValues(opts)
	return opts, nil
}

// LoadOptions reads Options from a YAML file
func LoadOptions(path string) (*Options, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Unable to read pipeline options from %s: %w", path, err)
	}
	return ParseOptions(data)
}

func formatted(merr *multierror.Error) error {
	if merr != nil {
		merr.ErrorFormat = util.FormatMultiError
	}
	return merr.ErrorOrNil()
}
