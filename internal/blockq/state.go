package blockq

import "sync/atomic"

// NumScenarios is the number of producer/consumer pairs the harness runs.
const NumScenarios = 3

// Counter is a 16-bit progress counter with a single writer task. Readers
// may load it at any time without locking.
type Counter struct {
	v atomic.Uint32
}

// Load returns the current count.
func (c *Counter) Load() uint16 {
	return uint16(c.v.Load())
}

// inc advances the counter and returns the new value, wrapping at 2^16.
func (c *Counter) inc() uint16 {
	return uint16(c.v.Add(1))
}

func (c *Counter) reset() {
	c.v.Store(0)
}

// HarnessState owns the six progress counters, indexed by scenario.
type HarnessState struct {
	Producers [NumScenarios]Counter
	Consumers [NumScenarios]Counter
}

// Counts is a point-in-time copy of every counter.
type Counts struct {
	Producers [NumScenarios]uint16
	Consumers [NumScenarios]uint16
}

// Counts loads every counter. Individual loads are atomic; the set as a
// whole is not a consistent cut.
func (s *HarnessState) Counts() Counts {
	var c Counts
	for i := 0; i < NumScenarios; i++ {
		c.Producers[i] = s.Producers[i].Load()
		c.Consumers[i] = s.Consumers[i].Load()
	}
	return c
}

func (s *HarnessState) reset() {
	for i := 0; i < NumScenarios; i++ {
		s.Producers[i].reset()
		s.Consumers[i].reset()
	}
}
