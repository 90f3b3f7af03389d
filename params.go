package asyncstream

// Mode selects the execution discipline used to advance an operator's
// asynchronous operations (predicates, projections, key extractors).
type Mode int

const (
	// ModeSequential advances the upstream and runs every callback on the
	// consumer's own goroutine, one operation at a time. No overlap.
	ModeSequential Mode = iota
	// ModeConcurrent overlaps callback invocations on a worker pool
	// concurrentPacingFactor times larger than ModeParallel's. Intended
	// for I/O-bound callbacks where the overlap comes from waiting, not
	// from spending CPU.
	ModeConcurrent
	// ModeParallel bounds the number of simultaneously running callbacks
	// to a fixed worker count (by default runtime.NumCPU()), matching
	// CPU-bound work that does not benefit from unbounded overlap.
	ModeParallel
)

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "Sequential"
	case ModeConcurrent:
		return "Concurrent"
	case ModeParallel:
		return "Parallel"
	default:
		return "Mode(?)"
	}
}

// ExecParams is the execution-parameter axis carried by every operator:
// which discipline advances it, and whether results must be delivered in
// the order the source produced them (Ordered) or in completion order
// (Unordered). Sequential execution has no completion-order distinction
// to make, since nothing ever runs ahead of the consumer.
type ExecParams struct {
	Mode    Mode
	Ordered bool
}

// DefaultParams is the execution discipline every pipeline starts in:
// sequential, and trivially ordered.
func DefaultParams() ExecParams {
	return ExecParams{Mode: ModeSequential, Ordered: true}
}

// WithMode returns a copy of p with Mode replaced.
func (p ExecParams) WithMode(m Mode) ExecParams {
	p.Mode = m
	return p
}

// WithOrdered returns a copy of p with Ordered replaced.
func (p ExecParams) WithOrdered(ordered bool) ExecParams {
	p.Ordered = ordered
	return p
}

// IsConcurrentLike reports whether the discipline requires the 3-runner
// (Sequential/Unordered/Ordered) machinery at all, i.e. it is not plain
// Sequential.
func (p ExecParams) IsConcurrentLike() bool {
	return p.Mode != ModeSequential
}
