package spin

import (
	"github.com/erdong01/spin/internal/cpuid"
	"github.com/erdong01/spin/internal/relax"
)

type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	opts.withDefaults()
	return opts
}

// Options contains all options which will be applied when instantiating a lock.
type Options struct {
	// TryAttempts is the number of extra compare-and-swap retries a TryLock
	// performs before giving up and reporting contention.
	TryAttempts uint32

	// MaxBackoff caps the exponential backoff ladder used while spinning.
	MaxBackoff int

	// ProcID identifies the logical processor executing the caller. It must
	// return a stable small nonnegative integer, distinct for processors
	// that can race on the same lock.
	ProcID func() int

	// Preempted reports whether the given logical processor is currently
	// descheduled by an underlying hypervisor. When it returns true for the
	// processor holding a lock, waiters yield their timeslice back to the
	// host instead of spinning against a holder that cannot make progress.
	// On non-virtualized deployments it should be a constant false.
	Preempted func(cpu int) bool

	// Logger is the customized logger for the checked wrappers. If it is not
	// set, a default zerolog-backed logger is used. The raw lock paths never
	// log.
	Logger Logger
}

func (opts *Options) withDefaults() {
	if opts.TryAttempts == 0 {
		opts.TryAttempts = defaultTryAttempts
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = relax.DefaultMaxBackoff
	}
	if opts.ProcID == nil {
		opts.ProcID = cpuid.ProcID
	}
	if opts.Preempted == nil {
		opts.Preempted = neverPreempted
	}
	if opts.Logger == nil {
		opts.Logger = defaultLogger
	}
}

const defaultTryAttempts = 4

func neverPreempted(int) bool { return false }

// defaultOpts backs zero-value locks that were not built through a
// constructor.
var defaultOpts = *loadOptions()

// WithOptions accepts the whole options config.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithTryAttempts sets up the retry budget of the TryLock variants.
func WithTryAttempts(attempts uint32) Option {
	return func(opts *Options) {
		opts.TryAttempts = attempts
	}
}

// WithMaxBackoff sets up the ceiling of the spin backoff ladder.
func WithMaxBackoff(max int) Option {
	return func(opts *Options) {
		opts.MaxBackoff = max
	}
}

// WithProcID sets up the per-processor identity source.
func WithProcID(procID func() int) Option {
	return func(opts *Options) {
		opts.ProcID = procID
	}
}

// WithPreempted sets up the hypervisor preemption query.
func WithPreempted(preempted func(cpu int) bool) Option {
	return func(opts *Options) {
		opts.Preempted = preempted
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
