package corepool

import (
	"log"
	"sync"
	"time"

	"github.com/jasonKoogler/csopesy/internal/policy"
	"github.com/jasonKoogler/csopesy/internal/process"
	"github.com/jasonKoogler/csopesy/internal/queue"
)

// unknownPolicyRetryInterval paces the log-and-skip loop a worker falls
// into under an unrecognized scheduler policy, so it doesn't spin.
const unknownPolicyRetryInterval = 10 * time.Millisecond

// Pool owns the fixed set of virtual core worker goroutines and the
// registries (§3) they move processes through as they run.
type Pool struct {
	queue        *queue.Queue
	numCores     int
	policy       policy.Policy
	delayPerExec int
	logger       *log.Logger

	regMu     sync.RWMutex
	running   map[string]*process.Process
	finished  map[string]*process.Process
	available []bool

	stages   *stageTracker
	wg       sync.WaitGroup
	onFinish func(*process.Process)
}

// SetOnFinish registers a callback invoked (outside any pool lock) whenever
// a process completes. Used by the façade to optionally mirror a finished
// process's log to disk; must be set before Start.
func (p *Pool) SetOnFinish(fn func(*process.Process)) {
	p.onFinish = fn
}

// New builds a pool of numCores workers bound to q, running under pol with
// the given per-instruction busy-spin delay. logger may be nil.
func New(q *queue.Queue, numCores int, pol policy.Policy, delayPerExec int, logger *log.Logger) *Pool {
	available := make([]bool, numCores)
	for i := range available {
		available[i] = true
	}
	return &Pool{
		queue:        q,
		numCores:     numCores,
		policy:       pol,
		delayPerExec: delayPerExec,
		logger:       logger,
		running:      make(map[string]*process.Process),
		finished:     make(map[string]*process.Process),
		available:    available,
		stages:       newStageTracker(numCores),
	}
}

// Start spawns one worker goroutine per core and returns immediately. Each
// worker runs until done is closed and the queue's Shutdown has woken it.
func (p *Pool) Start(done <-chan struct{}) {
	for coreID := 0; coreID < p.numCores; coreID++ {
		p.wg.Add(1)
		go p.workerLoop(coreID, done)
	}
}

// Wait blocks until every worker goroutine has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) workerLoop(coreID int, done <-chan struct{}) {
	defer p.wg.Done()

	for {
		p.stages.set(coreID, Idle)

		if p.policy.Kind == policy.Unknown {
			// §7 UNKNOWN_POLICY: log and skip dequeuing this iteration
			// rather than guessing a scheduling discipline.
			if p.logger != nil {
				p.logger.Printf("core %d: unsupported scheduler policy, not dequeuing", coreID)
			}
			select {
			case <-done:
				return
			case <-time.After(unknownPolicyRetryInterval):
			}
			continue
		}

		p.stages.set(coreID, Dispatching)
		proc, ok := p.queue.WaitPopWithTransition(done, func(proc *process.Process) {
			p.markRunning(coreID, proc)
		})
		if !ok {
			return // shutdown signalled, nothing dequeued
		}

		p.stages.set(coreID, Running)
		outcome := proc.ExecuteSlice(coreID, p.delayPerExec, p.policy.SliceLimit(), done)
		p.stages.set(coreID, Settling)

		switch outcome {
		case process.Completed:
			p.markFinished(coreID, proc)
		case process.Preempted:
			p.requeue(coreID, proc)
		case process.Halted:
			// Abandoned in place: left in the running set with its current
			// pc, per spec §4.7. The worker exits without further
			// bookkeeping — stop() does not retract in-flight state.
			return
		}
	}
}

func (p *Pool) markRunning(coreID int, proc *process.Process) {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	p.available[coreID] = false
	p.running[proc.Name] = proc
}

func (p *Pool) markFinished(coreID int, proc *process.Process) {
	p.regMu.Lock()
	delete(p.running, proc.Name)
	p.finished[proc.Name] = proc
	p.available[coreID] = true
	p.regMu.Unlock()

	if p.onFinish != nil {
		p.onFinish(proc)
	}
}

func (p *Pool) requeue(coreID int, proc *process.Process) {
	p.queue.PushWithTransition(proc, func() {
		p.regMu.Lock()
		defer p.regMu.Unlock()
		delete(p.running, proc.Name)
		p.available[coreID] = true
	})
}

// Running returns a snapshot copy of the running-process registry.
func (p *Pool) Running() map[string]*process.Process {
	p.regMu.RLock()
	defer p.regMu.RUnlock()
	out := make(map[string]*process.Process, len(p.running))
	for k, v := range p.running {
		out[k] = v
	}
	return out
}

// Finished returns a snapshot copy of the finished-process registry.
func (p *Pool) Finished() map[string]*process.Process {
	p.regMu.RLock()
	defer p.regMu.RUnlock()
	out := make(map[string]*process.Process, len(p.finished))
	for k, v := range p.finished {
		out[k] = v
	}
	return out
}

// UsedCores reports how many cores currently hold a running process.
func (p *Pool) UsedCores() int {
	p.regMu.RLock()
	defer p.regMu.RUnlock()
	used := 0
	for _, a := range p.available {
		if !a {
			used++
		}
	}
	return used
}

// NumCores returns the configured core count.
func (p *Pool) NumCores() int {
	return p.numCores
}

// Stages returns the current per-core activity, for status telemetry.
func (p *Pool) Stages() []Stage {
	return p.stages.Stages()
}
