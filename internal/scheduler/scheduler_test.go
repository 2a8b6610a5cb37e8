package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitializeBeforeStartRequired(t *testing.T) {
	s := New(nil)
	err := s.Start()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStartStopLifecycle(t *testing.T) {
	path := writeConfig(t, "num-cpu 2\nscheduler rr\nquantum-cycles 3\nbatch-process-freq 1\nmin-ins 2\nmax-ins 4\n")
	s := New(nil)
	require.NoError(t, s.Initialize(path))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	err := s.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.Eventually(t, func() bool {
		status, err := s.Snapshot()
		require.NoError(t, err)
		return len(status.Running) > 0 || len(status.Finished) > 0
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	err = s.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestSnapshotCountsSumToCreated(t *testing.T) {
	// S7 — every process the dispatcher has produced is accounted for:
	// either still queued, running, or finished.
	path := writeConfig(t, "num-cpu 2\nscheduler fcfs\nbatch-process-freq 1\nmin-ins 1\nmax-ins 1\ndelay-per-exec 0\n")
	s := New(nil)
	require.NoError(t, s.Initialize(path))
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		status, err := s.Snapshot()
		require.NoError(t, err)
		return len(status.Finished) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())

	status, err := s.Snapshot()
	require.NoError(t, err)
	queued, err := s.QueueLen()
	require.NoError(t, err)
	created, err := s.CreatedCount()
	require.NoError(t, err)

	assert.Greater(t, created, 0)
	assert.Equal(t, created, len(status.Running)+len(status.Finished)+queued)
}

func TestCreateManualAndFindProcess(t *testing.T) {
	path := writeConfig(t, "num-cpu 1\nscheduler fcfs\nbatch-process-freq 100000\nmin-ins 3\nmax-ins 3\n")
	s := New(nil)
	require.NoError(t, s.Initialize(path))

	_, err := s.CreateManual("manual-1")
	require.NoError(t, err)

	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		_, err := s.FindProcess("manual-1")
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())

	_, err = s.FindProcess("does-not-exist")
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestUnknownPolicyIsNotFatal(t *testing.T) {
	path := writeConfig(t, "num-cpu 1\nscheduler made-up\nbatch-process-freq 1\nmin-ins 1\nmax-ins 1\n")
	s := New(nil)
	require.NoError(t, s.Initialize(path))
	require.NoError(t, s.Start())

	// Give it a moment; an unknown policy must not crash the scheduler.
	time.Sleep(30 * time.Millisecond)
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop())
}

func TestDumpDirMirrorsFinishedLog(t *testing.T) {
	dumpDir := t.TempDir()
	path := writeConfig(t, "num-cpu 1\nscheduler fcfs\nbatch-process-freq 100000\nmin-ins 1\nmax-ins 1\n")
	s := New(nil)
	require.NoError(t, s.Initialize(path))
	s.SetDumpDir(dumpDir)

	_, err := s.CreateManual("dumped")
	require.NoError(t, err)
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dumpDir, "dumped.log"))
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
}
