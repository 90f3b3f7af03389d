package asyncstream

import "runtime"

// RunnerConfig tunes how the Concurrent/Parallel runners overlap work.
// Grounded on the teacher's ParallelConfig/ParallelOption pair
// (parallel.go): a small functional-options struct rather than a long
// constructor argument list.
type RunnerConfig struct {
	// Concurrency is the worker count of the Concurrent/Parallel runners:
	// under ModeParallel it bounds the number of simultaneously running
	// callbacks, and under ModeConcurrent it is multiplied by
	// concurrentPacingFactor.
	Concurrency int
	// QueueBuffer is recorded by WithQueueBuffer, but no runner reads it:
	// the internal completion queues always start empty and grow on
	// demand.
	QueueBuffer int
}

// RunnerOption configures a RunnerConfig.
type RunnerOption func(*RunnerConfig)

// DefaultRunnerConfig mirrors the teacher's DefaultParallelConfig:
// concurrency defaults to the number of available CPUs.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{Concurrency: runtime.NumCPU()}
}

// WithConcurrency overrides the worker/pacing count. Values <= 0 fall
// back to the default.
func WithConcurrency(n int) RunnerOption {
	return func(c *RunnerConfig) {
		if n > 0 {
			c.Concurrency = n
		}
	}
}

// WithQueueBuffer sets RunnerConfig.QueueBuffer; values <= 0 leave it
// unchanged. No runner reads the field, so it has no effect on the
// queues.
func WithQueueBuffer(n int) RunnerOption {
	return func(c *RunnerConfig) {
		if n > 0 {
			c.QueueBuffer = n
		}
	}
}

func buildRunnerConfig(opts ...RunnerOption) RunnerConfig {
	cfg := DefaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
