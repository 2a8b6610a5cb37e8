package dispatcher

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jasonKoogler/csopesy/internal/queue"
)

func TestDispatcherGeneratesAtBatchFrequency(t *testing.T) {
	q := queue.New()
	d := New(q, 1, 1, 3, nil, rand.New(rand.NewSource(1)))
	done := make(chan struct{})

	d.Start(done)
	require.Eventually(t, func() bool {
		return q.Len() >= 2
	}, time.Second, time.Millisecond)

	close(done)
	d.Wait()
}

func TestDispatcherHonorsBatchFrequency(t *testing.T) {
	q := queue.New()
	// Only dispatch every 20th tick (~200ms); over a 50ms window expect at
	// most 1.
	d := New(q, 20, 1, 1, nil, rand.New(rand.NewSource(1)))
	done := make(chan struct{})

	d.Start(done)
	time.Sleep(50 * time.Millisecond)
	close(done)
	d.Wait()

	if q.Len() > 1 {
		t.Errorf("Len() = %d, want at most 1 within a 50ms window at freq=20", q.Len())
	}
}

func TestDispatcherProcessNaming(t *testing.T) {
	if got := processName(1); got != "Process_01" {
		t.Errorf("processName(1) = %q, want Process_01", got)
	}
	if got := processName(42); got != "Process_42" {
		t.Errorf("processName(42) = %q, want Process_42", got)
	}
	if got := processName(137); got != "Process_137" {
		t.Errorf("processName(137) = %q, want Process_137", got)
	}
}

func TestCreateManualEnqueues(t *testing.T) {
	q := queue.New()
	d := New(q, 1, 5, 5, nil, rand.New(rand.NewSource(1)))

	p := d.CreateManual("manual1")
	if p.Name != "manual1" {
		t.Errorf("Name = %q, want manual1", p.Name)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if got, ok := q.TryPop(); !ok || got != p {
		t.Errorf("TryPop() = %v, %v, want the created process", got, ok)
	}
}
