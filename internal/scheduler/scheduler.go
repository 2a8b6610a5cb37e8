// Package scheduler implements the façade (§4.6): lifecycle
// (initialize/start/stop), policy selection, the running/finished
// registries, and status snapshots, tying together the ready queue, core
// pool, and dispatcher.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jasonKoogler/csopesy/internal/config"
	"github.com/jasonKoogler/csopesy/internal/corepool"
	"github.com/jasonKoogler/csopesy/internal/dispatcher"
	"github.com/jasonKoogler/csopesy/internal/policy"
	"github.com/jasonKoogler/csopesy/internal/process"
	"github.com/jasonKoogler/csopesy/internal/queue"
	"github.com/jasonKoogler/csopesy/internal/report"
)

// Sentinel errors for §7's non-fatal error kinds.
var (
	ErrNotInitialized  = errors.New("scheduler: not initialized")
	ErrAlreadyRunning  = errors.New("scheduler: already running")
	ErrNotRunning      = errors.New("scheduler: not running")
	ErrProcessNotFound = errors.New("scheduler: process not found")
)

// Scheduler is the façade described in spec §4.6/§4.7.
type Scheduler struct {
	logger *log.Logger

	mu          sync.Mutex
	initialized bool
	cfg         *config.Config
	pol         policy.Policy
	q           *queue.Queue
	pool        *corepool.Pool
	disp        *dispatcher.Dispatcher
	done        chan struct{}

	running atomic.Bool

	// dumpDir, if non-empty, is where a finished process's log is mirrored
	// to disk as an additive within-run observability feature (see
	// SPEC_FULL.md; this is not persistence of scheduler state across
	// runs).
	dumpDir string
}

// New constructs an uninitialized façade. logger may be nil, in which case
// a logger writing to stdout with standard flags is used.
func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	return &Scheduler{logger: logger}
}

// SetDumpDir configures the optional per-process log mirror directory. It
// may be called at any time: each finishing process reads the directory
// set at that moment, and an empty directory disables the mirror.
func (s *Scheduler) SetDumpDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dumpDir = dir
}

// Initialize loads configuration from path and prepares (but does not
// start) the queue, core pool, and dispatcher. Idempotent: calling it again
// rebuilds state from the (possibly different) config file, as long as the
// scheduler is not currently running.
func (s *Scheduler) Initialize(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return fmt.Errorf("%w: cannot initialize while running", ErrAlreadyRunning)
	}

	cfg, loadErr := config.LoadConfig(path)
	if loadErr != nil {
		// CONFIG_IO: logged, defaults retained, not fatal (§7).
		s.logger.Printf("config: %v (using defaults)", loadErr)
	}

	pol, polErr := policy.Parse(cfg.Scheduler, cfg.QuantumCycles)
	if polErr != nil {
		// UNKNOWN_POLICY: logged, not fatal (§7); corepool handles the
		// Unknown policy value by logging and skipping dequeues.
		s.logger.Printf("config: %v", polErr)
	}

	s.cfg = cfg
	s.pol = pol
	s.q = queue.New()
	s.pool = corepool.New(s.q, cfg.NumCPU, pol, cfg.DelayPerExec, s.logger)
	s.pool.SetOnFinish(s.mirrorLog)
	s.disp = dispatcher.New(s.q, cfg.BatchProcessFreq, cfg.MinIns, cfg.MaxIns, s.logger, nil)
	s.initialized = true
	return nil
}

func (s *Scheduler) mirrorLog(p *process.Process) {
	s.mu.Lock()
	dir := s.dumpDir
	s.mu.Unlock()
	if dir == "" {
		return
	}

	path := filepath.Join(dir, p.Name+".log")
	content := []byte(strings.Join(p.Logs(), "\n"))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		s.logger.Printf("log dump for %s: %v", p.Name, err)
	}
}

// Start spawns num-cpu core workers and one dispatcher; returns immediately.
// Illegal if already running or not yet initialized (§4.6, §7
// LIFECYCLE_VIOLATION).
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Printf("start: %v", ErrAlreadyRunning)
		return ErrAlreadyRunning
	}
	s.done = make(chan struct{})
	pool, disp := s.pool, s.disp
	s.mu.Unlock()

	pool.Start(s.done)
	disp.Start(s.done)
	return nil
}

// Stop sets the shutdown flag, wakes everything blocked on the ready
// queue's condition variable, and joins the dispatcher then all core
// workers. After it returns, no background activity remains. Running
// processes are abandoned in place (§4.6, §4.7). Illegal if not running
// (§7 LIFECYCLE_VIOLATION).
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running.CompareAndSwap(true, false) {
		s.mu.Unlock()
		s.logger.Printf("stop: %v", ErrNotRunning)
		return ErrNotRunning
	}
	done, q, pool, disp := s.done, s.q, s.pool, s.disp
	s.mu.Unlock()

	close(done)
	q.Shutdown()
	disp.Wait()
	pool.Wait()
	return nil
}

// IsRunning reports whether the scheduler currently has background workers.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Config returns the loaded configuration (nil before Initialize).
func (s *Scheduler) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Policy returns the resolved scheduling policy (zero value before
// Initialize).
func (s *Scheduler) Policy() policy.Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pol
}

// CreateManual builds a process using the configured generator settings and
// enqueues it, without requiring the dispatcher's own tick loop to be
// running (§4.6).
func (s *Scheduler) CreateManual(name string) (*process.Process, error) {
	s.mu.Lock()
	disp := s.disp
	s.mu.Unlock()
	if disp == nil {
		return nil, ErrNotInitialized
	}
	return disp.CreateManual(name), nil
}

// FindProcess searches the running set, then the finished set (§4.6).
func (s *Scheduler) FindProcess(name string) (*process.Process, error) {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return nil, ErrNotInitialized
	}

	if p, ok := pool.Running()[name]; ok {
		return p, nil
	}
	if p, ok := pool.Finished()[name]; ok {
		return p, nil
	}
	return nil, ErrProcessNotFound
}

// Snapshot returns a consistent status view for reporting (§4.6, §6).
func (s *Scheduler) Snapshot() (report.Status, error) {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return report.Status{}, ErrNotInitialized
	}

	running := pool.Running()
	finished := pool.Finished()

	status := report.Status{
		NumCores:  pool.NumCores(),
		UsedCores: pool.UsedCores(),
	}
	for _, p := range running {
		status.Running = append(status.Running, report.RunningEntry{
			Name:      p.Name,
			Timestamp: p.Created,
			CoreID:    p.AssignedCore(),
			PC:        p.ProgramCounter(),
			Total:     p.TotalInstructions(),
		})
	}
	for _, p := range finished {
		status.Finished = append(status.Finished, report.FinishedEntry{
			Name:      p.Name,
			Timestamp: p.Created,
			Total:     p.TotalInstructions(),
		})
	}
	return status, nil
}

// QueueLen reports how many processes are currently waiting in the ready
// queue, for consistency checks against Snapshot.
func (s *Scheduler) QueueLen() (int, error) {
	s.mu.Lock()
	q := s.q
	s.mu.Unlock()
	if q == nil {
		return 0, ErrNotInitialized
	}
	return q.Len(), nil
}

// CreatedCount reports how many processes the dispatcher has produced so
// far (tick-driven and manual), for consistency checks against Snapshot.
func (s *Scheduler) CreatedCount() (int, error) {
	s.mu.Lock()
	disp := s.disp
	s.mu.Unlock()
	if disp == nil {
		return 0, ErrNotInitialized
	}
	return disp.Created(), nil
}

// Stages returns each core worker's current activity, for optional
// telemetry display (see SPEC_FULL.md's corepool adaptation note).
func (s *Scheduler) Stages() ([]corepool.Stage, error) {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return nil, ErrNotInitialized
	}
	return pool.Stages(), nil
}
