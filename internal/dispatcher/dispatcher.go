// Package dispatcher implements the scheduler's single producer task: it
// ticks at a fixed cadence and, every batch-process-freq ticks, manufactures
// a synthetic process and pushes it onto the ready queue (§4.4).
package dispatcher

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jasonKoogler/csopesy/internal/instruction"
	"github.com/jasonKoogler/csopesy/internal/process"
	"github.com/jasonKoogler/csopesy/internal/queue"
)

// TickInterval is the dispatcher's fixed cadence, matching the original
// source's 10ms-per-tick loop (spec §9 Open Question 2).
const TickInterval = 10 * time.Millisecond

// Dispatcher is the single background producer task.
type Dispatcher struct {
	queue            *queue.Queue
	batchProcessFreq int
	minIns, maxIns   int
	logger           *log.Logger
	rand             *rand.Rand
	randMu           sync.Mutex

	nextID atomic.Int64
	tick   atomic.Int64
	wg     sync.WaitGroup
}

// New builds a dispatcher. If r is nil, a time-seeded source is used;
// passing a deterministic *rand.Rand makes dispatch output reproducible in
// tests (§4.5).
func New(q *queue.Queue, batchProcessFreq, minIns, maxIns int, logger *log.Logger, r *rand.Rand) *Dispatcher {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	d := &Dispatcher{
		queue:            q,
		batchProcessFreq: batchProcessFreq,
		minIns:           minIns,
		maxIns:           maxIns,
		logger:           logger,
		rand:             r,
	}
	d.nextID.Store(1)
	return d
}

// Start spawns the dispatcher's background goroutine, ticking until done is
// closed.
func (d *Dispatcher) Start(done <-chan struct{}) {
	d.wg.Add(1)
	go d.run(done)
}

// Wait blocks until the dispatcher's goroutine has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(done <-chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			n := d.tick.Add(1)
			if n%int64(d.batchProcessFreq) == 0 {
				d.dispatchOne()
			}
		}
	}
}

func (d *Dispatcher) dispatchOne() {
	id := int(d.nextID.Add(1) - 1)
	name := processName(id)

	n := d.randomLen()
	prog := d.generate(n)

	proc := process.New(id, name, prog)
	d.queue.Push(proc)

	if d.logger != nil {
		d.logger.Printf("dispatched %s (%d instructions)", name, n)
	}
}

// randomLen and generate serialize access to the shared *rand.Rand, which
// is not safe for concurrent use (only the dispatcher's own goroutine calls
// this today, but CreateManual on the façade may also draw from the same
// source).
func (d *Dispatcher) randomLen() int {
	d.randMu.Lock()
	defer d.randMu.Unlock()
	if d.maxIns <= d.minIns {
		return d.minIns
	}
	return d.minIns + d.rand.Intn(d.maxIns-d.minIns+1)
}

func (d *Dispatcher) generate(n int) instruction.Program {
	d.randMu.Lock()
	defer d.randMu.Unlock()
	return instruction.Generate(d.rand, n)
}

// processName formats a zero-padded id per §4.4: 2 digits by default,
// widened as needed once id grows past what 2 digits can hold.
func processName(id int) string {
	width := 2
	for n := id; n >= 100; n /= 10 {
		width++
	}
	return fmt.Sprintf("Process_%0*d", width, id)
}

// Created reports how many processes this dispatcher has handed an id to so
// far, across both the tick loop and CreateManual.
func (d *Dispatcher) Created() int {
	return int(d.nextID.Load() - 1)
}

// CreateManual builds and enqueues a single named process outside the
// normal tick cadence, for the façade's "screen -s <name>" manual-creation
// path (§4.6).
func (d *Dispatcher) CreateManual(name string) *process.Process {
	n := d.randomLen()
	prog := d.generate(n)
	id := int(d.nextID.Add(1) - 1)
	proc := process.New(id, name, prog)
	d.queue.Push(proc)
	return proc
}
