package blockq

import "sync/atomic"

// GoalDetector fires a callback each time the observed counter lands
// exactly on the target. A counter that is reset and driven to the target
// again fires again.
type GoalDetector struct {
	target   uint16
	callback func()
	fired    atomic.Int64
}

// NewGoalDetector creates a detector for target. callback may be nil.
func NewGoalDetector(target uint16, callback func()) *GoalDetector {
	if callback == nil {
		callback = func() {}
	}
	return &GoalDetector{target: target, callback: callback}
}

// Target returns the goal value.
func (g *GoalDetector) Target() uint16 { return g.target }

// Observe checks a new counter value and fires on an exact match.
// It reports whether the callback ran.
func (g *GoalDetector) Observe(count uint16) bool {
	if count != g.target {
		return false
	}
	g.fired.Add(1)
	g.callback()
	return true
}

// Fired returns how many times the callback has run.
func (g *GoalDetector) Fired() int {
	return int(g.fired.Load())
}
