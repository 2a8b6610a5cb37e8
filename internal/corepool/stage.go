// Package corepool implements the bounded pool of virtual core workers
// (§4.3): each worker repeatedly dequeues a process from the ready queue,
// runs it under the current policy, and either retires or requeues it.
package corepool

import "sync"

// Activity is a core worker's current high-level phase, exposed for
// observability via Pool.Stages (and Scheduler.Stages); it is not part of
// the Snapshot status. It never gates scheduling decisions — it is
// a generalization of the teacher's hardware-pipeline Stage concept
// (named phase + busy flag + mutex-guarded copy-out) repurposed from CPU
// pipeline stages to scheduler-worker activity.
type Activity int

const (
	Idle Activity = iota
	Dispatching
	Running
	Settling
)

func (a Activity) String() string {
	switch a {
	case Idle:
		return "idle"
	case Dispatching:
		return "dispatching"
	case Running:
		return "running"
	case Settling:
		return "settling"
	default:
		return "unknown"
	}
}

// Stage is a snapshot of one core's current activity.
type Stage struct {
	CoreID   int
	Activity Activity
}

// stageTracker holds the live per-core activity, guarded by its own mutex
// so Stages can be read without touching the queue's lock.
type stageTracker struct {
	mu     sync.Mutex
	stages []Stage
}

func newStageTracker(numCores int) *stageTracker {
	stages := make([]Stage, numCores)
	for i := range stages {
		stages[i] = Stage{CoreID: i, Activity: Idle}
	}
	return &stageTracker{stages: stages}
}

func (t *stageTracker) set(coreID int, a Activity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stages[coreID].Activity = a
}

// Stages returns a copy of every core's current activity, safe for the
// caller to read without further locking.
func (t *stageTracker) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}
