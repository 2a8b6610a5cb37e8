// Package report formats and writes the scheduler's status report (§6),
// shared by both the "screen -ls" stdout sink and the "report-util" file
// sink.
package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// RunningEntry describes one process in the Running set for reporting.
type RunningEntry struct {
	Name      string
	Timestamp time.Time
	CoreID    int
	PC        int
	Total     int
}

// FinishedEntry describes one process in the Finished set for reporting.
type FinishedEntry struct {
	Name      string
	Timestamp time.Time
	Total     int
}

// Status is a consistent snapshot of scheduler state for reporting (§4.6).
type Status struct {
	NumCores  int
	UsedCores int
	Running   []RunningEntry
	Finished  []FinishedEntry
}

// UtilizationPercent returns the integer percentage of cores in use.
func (s Status) UtilizationPercent() int {
	if s.NumCores == 0 {
		return 0
	}
	return s.UsedCores * 100 / s.NumCores
}

// AvailableCores returns the number of idle cores.
func (s Status) AvailableCores() int {
	return s.NumCores - s.UsedCores
}

const timestampLayout = "01/02/2006 15:04:05"

// Format renders Status in the exact layout specified in §6.
func Format(s Status) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CPU Utilization: %d%%\n", s.UtilizationPercent())
	fmt.Fprintf(&b, "Cores Used: %d\n", s.UsedCores)
	fmt.Fprintf(&b, "Cores Available: %d\n", s.AvailableCores())
	b.WriteString("________________________________________________________\n\n")

	b.WriteString("Running processes:\n\n")
	for _, r := range sortedRunning(s.Running) {
		fmt.Fprintf(&b, "%s | (%s) | Core:%d | %d / %d\n\n",
			r.Name, r.Timestamp.Format(timestampLayout), r.CoreID, r.PC, r.Total)
	}

	b.WriteString("Finished processes:\n\n")
	for _, f := range sortedFinished(s.Finished) {
		fmt.Fprintf(&b, "%s | (%s) | Finished | %d/%d\n\n",
			f.Name, f.Timestamp.Format(timestampLayout), f.Total, f.Total)
	}

	b.WriteString("________________________________________________________\n")
	return b.String()
}

// WriteFile writes Format's output to path, overwriting any existing
// content, for the "report-util" command.
func WriteFile(s Status, path string) error {
	return os.WriteFile(path, []byte(Format(s)), 0o644)
}

func sortedRunning(entries []RunningEntry) []RunningEntry {
	out := make([]RunningEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedFinished(entries []FinishedEntry) []FinishedEntry {
	out := make([]FinishedEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
