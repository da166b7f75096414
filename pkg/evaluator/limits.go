package evaluator

// DefaultMaxCallDepth bounds nested calls when Limits leaves it unset.
const DefaultMaxCallDepth = 1024

// Limits holds the resource limits for a program execution.
type Limits struct {
	MaxCallDepth int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxCallDepth: DefaultMaxCallDepth}
}

func (l Limits) maxCallDepth() int {
	if l.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return l.MaxCallDepth
}

// CallTracker tracks call activity during execution.
type CallTracker struct {
	Calls    int64
	Depth    int
	MaxDepth int
}

func (t *CallTracker) enter() {
	t.Calls++
	t.Depth++
	if t.Depth > t.MaxDepth {
		t.MaxDepth = t.Depth
	}
}

func (t *CallTracker) leave() {
	t.Depth--
}
