package initsys

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

// --- Mock Runner ---

type mockRunner struct {
	programs map[string]bool
	// fail maps a full command line ("systemctl start svc.service") to its error.
	fail  map[string]error
	calls []string
}

func newMockRunner(programs ...string) *mockRunner {
	r := &mockRunner{programs: map[string]bool{}, fail: map[string]error{}}
	for _, p := range programs {
		r.programs[p] = true
	}
	return r
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	m.calls = append(m.calls, line)
	if err, ok := m.fail[line]; ok {
		return nil, err
	}
	return nil, nil
}

func (m *mockRunner) Has(name string) bool { return m.programs[name] }

func (m *mockRunner) called(line string) bool {
	for _, c := range m.calls {
		if c == line {
			return true
		}
	}
	return false
}

// --- Mock process table ---

type signal struct {
	pid int
	sig syscall.Signal
}

type mockTable struct {
	alive     map[int]bool
	signalErr error
	signals   []signal
}

func (m *mockTable) Alive(pid int) bool { return m.alive[pid] }

func (m *mockTable) Signal(pid int, sig syscall.Signal) error {
	m.signals = append(m.signals, signal{pid, sig})
	if m.signalErr != nil {
		return m.signalErr
	}
	delete(m.alive, pid)
	return nil
}

func (m *mockTable) FindByName(string) ([]int, error) { return nil, nil }

// --- Mock launcher ---

type mockLauncher struct {
	pid      int
	err      error
	launched []string
	table    *mockTable
}

func (m *mockLauncher) Launch(path string, _ ...string) (int, error) {
	m.launched = append(m.launched, path)
	if m.err != nil {
		return 0, m.err
	}
	if m.table != nil {
		m.table.alive[m.pid] = true
	}
	return m.pid, nil
}

// --- Helpers ---

var errCommandFailed = errors.New("exit status 1")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		ServiceName:  "svcagent",
		BinaryPath:   filepath.Join(dir, "usr", "local", "bin", "svcagent"),
		UnitFilePath: filepath.Join(dir, "etc", "systemd", "system", "svcagent.service"),
		ScriptPath:   filepath.Join(dir, "etc", "init.d", "svcagent"),
		PIDFilePath:  filepath.Join(dir, "var", "run", "svcagent.pid"),
	}
}
