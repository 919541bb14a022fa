package blockq

import "sync"

// LivenessReport is the outcome of one liveness poll.
type LivenessReport struct {
	// Live is true only if every counter advanced since the previous poll.
	Live bool
	// ProducerAdvanced and ConsumerAdvanced are indexed by scenario.
	ProducerAdvanced [NumScenarios]bool
	ConsumerAdvanced [NumScenarios]bool
	Counts           Counts
}

// Stalled returns the names of the tasks whose counters did not advance.
func (r LivenessReport) Stalled() []string {
	var names []string
	for i, sc := range scenarios {
		if !r.ProducerAdvanced[i] {
			names = append(names, sc.Producer.Name)
		}
		if !r.ConsumerAdvanced[i] {
			names = append(names, sc.Consumer.Name)
		}
	}
	return names
}

// LivenessMonitor compares the progress counters against the snapshot taken
// at the previous poll. It does not schedule itself; callers poll at
// whatever cadence they like.
type LivenessMonitor struct {
	state *HarnessState

	mu       sync.Mutex
	snapshot Counts
}

// NewLivenessMonitor creates a monitor over state with zeroed snapshots.
func NewLivenessMonitor(state *HarnessState) *LivenessMonitor {
	return &LivenessMonitor{state: state}
}

// Poll reports whether all six counters changed since the last poll.
func (m *LivenessMonitor) Poll() bool {
	return m.PollReport().Live
}

// PollReport is Poll with the per-counter detail. Snapshots are always
// refreshed, so each poll judges only the interval since the previous one.
func (m *LivenessMonitor) PollReport() LivenessReport {
	current := m.state.Counts()

	m.mu.Lock()
	defer m.mu.Unlock()

	r := LivenessReport{Live: true, Counts: current}
	for i := 0; i < NumScenarios; i++ {
		r.ProducerAdvanced[i] = current.Producers[i] != m.snapshot.Producers[i]
		r.ConsumerAdvanced[i] = current.Consumers[i] != m.snapshot.Consumers[i]
		if !r.ProducerAdvanced[i] || !r.ConsumerAdvanced[i] {
			r.Live = false
		}
	}
	m.snapshot = current
	return r
}

func (m *LivenessMonitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = Counts{}
}
