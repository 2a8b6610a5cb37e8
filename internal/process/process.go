// Package process owns a single guest process's program, variable store,
// log buffer, and program counter, and implements the per-slice execution
// engine for the instruction set defined in internal/instruction.
package process

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jasonKoogler/csopesy/internal/instruction"
)

// Outcome is the result of running a bounded slice of top-level instructions.
type Outcome int

const (
	// Completed means the process ran off the end of its program.
	Completed Outcome = iota
	// Preempted means the quantum was exhausted before the program ended.
	Preempted
	// Halted means a shutdown signal interrupted the slice.
	Halted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "COMPLETED"
	case Preempted:
		return "PREEMPTED"
	case Halted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

const (
	memMax = 65535
)

// Process is a guest process: its immutable program plus the mutable state
// that advances as core workers run slices of it.
type Process struct {
	ID       int
	Name     string
	Created  time.Time
	Program  instruction.Program

	mu            sync.Mutex
	pc            int
	memory        map[string]uint16
	logs          []string
	assignedCore  int // -1 means "none"
}

// New constructs a process with the given id, name, and program. pc starts
// at 0 per the data model invariants.
func New(id int, name string, program instruction.Program) *Process {
	return &Process{
		ID:           id,
		Name:         name,
		Created:      time.Now(),
		Program:      program,
		memory:       make(map[string]uint16),
		assignedCore: -1,
	}
}

// ProgramCounter returns the current top-level program counter.
func (p *Process) ProgramCounter() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc
}

// TotalInstructions returns the length of the top-level program.
func (p *Process) TotalInstructions() int {
	return len(p.Program)
}

// Finished reports whether the process has run off the end of its program.
func (p *Process) Finished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pc >= len(p.Program)
}

// AssignedCore returns the last core id that executed this process, or -1
// if it has never run.
func (p *Process) AssignedCore() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.assignedCore
}

// Logs returns a copy of the process's accumulated log entries.
func (p *Process) Logs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.logs))
	copy(out, p.logs)
	return out
}

// Memory returns a copy of the variable store, for inspection/tests.
func (p *Process) Memory() map[string]uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]uint16, len(p.memory))
	for k, v := range p.memory {
		out[k] = v
	}
	return out
}

// ExecuteSlice runs at most quantum top-level instructions (quantum == 0
// means "no limit", used for fcfs) on behalf of coreID, busy-spinning
// delayPerExec iterations after each instruction, until the program ends
// (Completed), the quantum is exhausted (Preempted), or done is closed
// (Halted). Caller is assumed to hold no lock of its own; the running-set
// membership invariant (spec §4.3) is what makes concurrent calls on the
// same Process impossible in practice.
func (p *Process) ExecuteSlice(coreID, delayPerExec, quantum int, done <-chan struct{}) Outcome {
	p.mu.Lock()
	p.assignedCore = coreID
	p.mu.Unlock()

	executed := 0
	for {
		select {
		case <-done:
			return Halted
		default:
		}

		p.mu.Lock()
		if p.pc >= len(p.Program) {
			p.mu.Unlock()
			return Completed
		}
		ins := p.Program[p.pc]
		p.mu.Unlock()

		p.runTopLevel(ins)

		p.mu.Lock()
		p.pc++
		reachedEnd := p.pc >= len(p.Program)
		p.mu.Unlock()

		busySpin(delayPerExec)

		executed++
		if reachedEnd {
			return Completed
		}
		if quantum > 0 && executed >= quantum {
			return Preempted
		}

		select {
		case <-done:
			return Halted
		default:
		}
	}
}

// busySpin models guest CPU cycles; it must not be replaced with a sleep,
// since some tests distinguish log ordering from wall-clock delay.
func busySpin(iterations int) {
	sum := 0
	for i := 0; i < iterations; i++ {
		sum += i
	}
	_ = sum
}

func (p *Process) runTopLevel(ins instruction.Instruction) {
	p.execute(ins)
}

// execute runs one instruction (top-level or nested within a FOR body).
func (p *Process) execute(ins instruction.Instruction) {
	switch ins.Kind {
	case instruction.PRINT:
		p.doPrint()
	case instruction.DECLARE:
		p.doDeclare(ins.Args)
	case instruction.ADD:
		p.doArith(ins.Args, true)
	case instruction.SUBTRACT:
		p.doArith(ins.Args, false)
	case instruction.SLEEP:
		p.doSleep(ins.Args)
	case instruction.FOR:
		p.doFor(ins)
	}
}

func (p *Process) doPrint() {
	p.appendLog("PRINT", fmt.Sprintf("Hello world from %s!", p.Name))
}

func (p *Process) doDeclare(args []string) {
	if len(args) < 2 {
		return // MALFORMED_INSTRUCTION: skipped silently, per spec §4.1
	}
	name := args[0]
	val, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return
	}

	p.mu.Lock()
	p.memory[name] = uint16(val) // truncated to 16 bits, not clamped
	p.mu.Unlock()

	p.appendLog("DECLARE", fmt.Sprintf("%s = %s", name, args[1]))
}

func (p *Process) doArith(args []string, add bool) {
	if len(args) < 3 {
		return
	}
	dest := args[0]
	a := p.resolve(args[1])
	b := p.resolve(args[2])

	var result int64
	if add {
		result = int64(a) + int64(b)
	} else {
		result = int64(a) - int64(b)
	}
	clamped := clamp(result)

	p.mu.Lock()
	p.memory[dest] = uint16(clamped)
	p.mu.Unlock()

	kind := "ADD"
	if !add {
		kind = "SUBTRACT"
	}
	p.appendLog(kind, fmt.Sprintf("%s = %d", dest, clamped))
}

func (p *Process) doSleep(args []string) {
	if len(args) < 1 {
		return
	}
	ticks, err := strconv.Atoi(args[0])
	if err != nil {
		return
	}
	p.appendLog("SLEEP", fmt.Sprintf("%d ticks", ticks))
	time.Sleep(time.Duration(ticks) * 10 * time.Millisecond)
}

func (p *Process) doFor(ins instruction.Instruction) {
	p.appendLog("FOR", fmt.Sprintf("repeat %d times {", ins.Repeat))
	for i := 1; i <= ins.Repeat; i++ {
		p.appendLog("FOR", fmt.Sprintf("  [FOR iteration %d]", i))
		for _, body := range ins.Body {
			p.execute(body)
		}
	}
	p.appendLog("FOR", "  [FOR loop ended] };")
}

// resolve returns a variable's value if arg names a known variable,
// otherwise parses arg as a decimal integer truncated to 16 bits.
func (p *Process) resolve(arg string) uint16 {
	p.mu.Lock()
	v, ok := p.memory[arg]
	p.mu.Unlock()
	if ok {
		return v
	}

	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0
	}
	return uint16(n) // truncated to 16 bits, not clamped
}

func clamp(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > memMax {
		return memMax
	}
	return v
}

func (p *Process) appendLog(kind, payload string) {
	entry := fmt.Sprintf("[%s] %s: %s", timestamp(), kind, payload)
	p.mu.Lock()
	p.logs = append(p.logs, entry)
	p.mu.Unlock()
}

func timestamp() string {
	return time.Now().Format("01/02/2006 15:04:05")
}
