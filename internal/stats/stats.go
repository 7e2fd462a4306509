// Package stats tallies lookup events consumed by the worker.
package stats

import (
	"sort"
	"sync"

	"github.com/Domenick1991/flighttracker/internal/kafka"
)

type Tally struct {
	mu       sync.Mutex
	total    int
	byKind   map[string]int
	byReason map[string]int
	slowest  kafka.LookupEvent
}

func NewTally() *Tally {
	return &Tally{
		byKind:   make(map[string]int),
		byReason: make(map[string]int),
	}
}

func (t *Tally) Record(event kafka.LookupEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	t.byKind[event.Kind]++
	if event.Reason != "" {
		t.byReason[event.Reason]++
	}
	if event.DurationMs > t.slowest.DurationMs {
		t.slowest = event
	}
}

type Snapshot struct {
	Total         int
	ByKind        map[string]int
	ByReason      map[string]int
	SyntheticRate float64
	SlowestFlight string
	SlowestMs     int64
}

// Snapshot returns the counts accumulated since the last Reset or Flush.
func (t *Tally) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tally) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// Flush returns the current snapshot and resets the counters atomically.
func (t *Tally) Flush() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.snapshotLocked()
	t.resetLocked()
	return s
}

func (t *Tally) snapshotLocked() Snapshot {
	s := Snapshot{
		Total:         t.total,
		ByKind:        copyCounts(t.byKind),
		ByReason:      copyCounts(t.byReason),
		SlowestFlight: t.slowest.FlightIATA,
		SlowestMs:     t.slowest.DurationMs,
	}
	if t.total > 0 {
		s.SyntheticRate = float64(t.byKind["synthetic"]) / float64(t.total)
	}
	return s
}

func (t *Tally) resetLocked() {
	t.total = 0
	t.byKind = make(map[string]int)
	t.byReason = make(map[string]int)
	t.slowest = kafka.LookupEvent{}
}

// TopReason is the most frequent fallback reason, ties broken by name.
func (s Snapshot) TopReason() string {
	reasons := make([]string, 0, len(s.ByReason))
	for r := range s.ByReason {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if s.ByReason[reasons[i]] != s.ByReason[reasons[j]] {
			return s.ByReason[reasons[i]] > s.ByReason[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	if len(reasons) == 0 {
		return ""
	}
	return reasons[0]
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
