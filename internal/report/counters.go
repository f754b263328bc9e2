package report

import "sync"

// Counters are the run-wide aggregates. Every mutation and every snapshot
// happens under one lock, so Passed+Failed+Skipped+Other always equals
// Steps in any Snapshot.
type Counters struct {
	mu        sync.Mutex
	snap      Snapshot
	features  map[string]struct{}
	scenarios map[string]struct{}
}

// Snapshot is a consistent copy of the counters.
type Snapshot struct {
	Steps     int
	Passed    int
	Failed    int
	Skipped   int
	Other     int
	Features  int
	Scenarios int
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{
		features:  make(map[string]struct{}),
		scenarios: make(map[string]struct{}),
	}
}

// RecordStep counts one finished step.
func (c *Counters) RecordStep(st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Steps++
	switch st {
	case Passed:
		c.snap.Passed++
	case Failed:
		c.snap.Failed++
	case Skipped:
		c.snap.Skipped++
	default:
		c.snap.Other++
	}
}

// RecordFeature notes a feature title; it returns true the first time a
// title is seen.
func (c *Counters) RecordFeature(title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.features[title]; ok {
		return false
	}
	c.features[title] = struct{}{}
	c.snap.Features++
	return true
}

// RecordScenario notes a scenario display name; it returns true the first
// time a name is seen.
func (c *Counters) RecordScenario(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scenarios[name]; ok {
		return false
	}
	c.scenarios[name] = struct{}{}
	c.snap.Scenarios++
	return true
}

// Snapshot returns the current values.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}
