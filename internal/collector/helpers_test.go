package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
	"housekeeper/internal/rate"
	"housekeeper/internal/source"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func at(sec int) clock.Instant {
	return clock.Mono(time.Duration(sec) * time.Second)
}

// scriptedSource replays snapshots in order and repeats the last one.
type scriptedSource struct {
	snaps []rate.Snapshot
	err   error
	calls int
}

func (s *scriptedSource) Read(context.Context) (rate.Snapshot, error) {
	if s.err != nil {
		return rate.NewSnapshot(at(0)), s.err
	}
	i := min(s.calls, len(s.snaps)-1)
	s.calls++
	return s.snaps[i], nil
}

func snapshot(sec int, values map[string]map[string]float64) rate.Snapshot {
	s := rate.NewSnapshot(at(sec))
	for key, fields := range values {
		for name, v := range fields {
			s.Set(key, name, v)
		}
	}
	return s
}

type fakeMemory struct {
	m   source.Memory
	err error
}

func (f fakeMemory) Memory(context.Context) (source.Memory, error) { return f.m, f.err }

type fakeHost struct {
	h   source.Host
	err error
}

func (f fakeHost) Host(context.Context) (source.Host, error) { return f.h, f.err }

type scriptedProcesses struct {
	snaps []rate.Snapshot
	meta  map[string]source.Process
	calls int
}

func (s *scriptedProcesses) Processes(context.Context) (rate.Snapshot, map[string]source.Process, error) {
	i := min(s.calls, len(s.snaps)-1)
	s.calls++
	return s.snaps[i], s.meta, nil
}

type scriptedMounts struct {
	rounds [][]source.Mount
	calls  int
}

func (s *scriptedMounts) Mounts(context.Context) ([]source.Mount, error) {
	i := min(s.calls, len(s.rounds)-1)
	s.calls++
	return s.rounds[i], nil
}

// writeTree creates files under root from a path -> content map.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}
