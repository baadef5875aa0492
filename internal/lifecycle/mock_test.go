package lifecycle

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/INNERJOINT/svcctl/internal/initsys"
	"github.com/INNERJOINT/svcctl/internal/privilege"
)

// --- Event recorder shared by the mocks ---

type recorder struct {
	events []string
}

func (r *recorder) add(event string) { r.events = append(r.events, event) }

func (r *recorder) index(event string) int {
	for i, e := range r.events {
		if e == event {
			return i
		}
	}
	return -1
}

func (r *recorder) has(prefix string) bool {
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

// --- Mock Runner ---

type mockRunner struct {
	rec      *recorder
	programs map[string]bool
	fail     map[string]error
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	m.rec.add("run:" + line)
	if err, ok := m.fail[line]; ok {
		return nil, err
	}
	return nil, nil
}

func (m *mockRunner) Has(name string) bool { return m.programs[name] }

// --- Mock process table ---

type signalCall struct {
	pid int
	sig syscall.Signal
}

type mockTable struct {
	alive   map[int]bool
	strays  []int
	signals []signalCall
}

func (m *mockTable) Alive(pid int) bool { return m.alive[pid] }

func (m *mockTable) Signal(pid int, sig syscall.Signal) error {
	m.signals = append(m.signals, signalCall{pid, sig})
	delete(m.alive, pid)
	return nil
}

func (m *mockTable) FindByName(string) ([]int, error) {
	var live []int
	for _, pid := range m.strays {
		if m.alive[pid] {
			live = append(live, pid)
		}
	}
	return live, nil
}

// --- Mock launcher ---

type mockLauncher struct {
	rec     *recorder
	table   *mockTable
	nextPID int
}

func (m *mockLauncher) Launch(path string, _ ...string) (int, error) {
	m.rec.add("launch:" + path)
	m.nextPID++
	m.table.alive[m.nextPID] = true
	return m.nextPID, nil
}

// --- Mock fetcher ---

type mockFetcher struct {
	rec     *recorder
	content []byte
	err     error
}

func (m *mockFetcher) FetchAndPromote(_ context.Context, _ string, _ string, live string) error {
	m.rec.add("fetch")
	if m.err != nil {
		return m.err
	}
	if err := os.WriteFile(live, m.content, 0o755); err != nil {
		return err
	}
	return os.Chmod(live, 0o755)
}

// --- Mock privilege checker ---

type mockChecker bool

func (m mockChecker) IsPrivileged() bool { return bool(m) }

// --- Sandbox ---

// sandbox redirects every host path under a temp root.
type sandbox struct {
	root     string
	cfg      Config
	rec      *recorder
	runner   *mockRunner
	table    *mockTable
	launcher *mockLauncher
	fetcher  *mockFetcher
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSandbox(t *testing.T, kind initsys.Kind) *sandbox {
	t.Helper()
	root := t.TempDir()

	cfg := Config{
		ServiceName:      "svcagent",
		DownloadURL:      "https://example.invalid/svcagent",
		BinaryPath:       filepath.Join(root, "usr", "local", "bin", "svcagent"),
		UnitFilePath:     filepath.Join(root, "etc", "systemd", "system", "svcagent.service"),
		ScriptPath:       filepath.Join(root, "etc", "init.d", "svcagent"),
		PIDFilePath:      filepath.Join(root, "var", "run", "svcagent.pid"),
		SystemdMarkerDir: filepath.Join(root, "run", "systemd", "system"),
		ProcRoot:         filepath.Join(root, "proc"),
	}
	cfg.ApplyDefaults()

	dirs := []string{cfg.InstallRoot, filepath.Dir(cfg.PIDFilePath)}
	programs := map[string]bool{"update-rc.d": true}
	if kind == initsys.KindSystemd {
		dirs = append(dirs, cfg.SystemdMarkerDir)
		programs = map[string]bool{"systemctl": true}
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	table := &mockTable{alive: map[int]bool{}}
	return &sandbox{
		root:     root,
		cfg:      cfg,
		rec:      rec,
		runner:   &mockRunner{rec: rec, programs: programs, fail: map[string]error{}},
		table:    table,
		launcher: &mockLauncher{rec: rec, table: table, nextPID: 1000},
		fetcher:  &mockFetcher{rec: rec, content: []byte("#!/bin/sh\nexec sleep 3600\n")},
	}
}

// manager builds a Manager the same way the CLI does, probing the marker once.
func (s *sandbox) manager(privileged bool) *Manager {
	initCfg := s.cfg.InitConfig()
	set := &initsys.Set{
		Kind:    initsys.Detect(s.cfg.SystemdMarkerDir),
		Systemd: initsys.NewSystemd(initCfg, s.runner, testLogger()),
		Legacy:  initsys.NewLegacy(initCfg, s.runner, s.table, s.launcher, testLogger()),
	}
	guard := privilege.NewGuard(mockChecker(privileged))
	return NewManager(s.cfg, guard, s.fetcher, set, s.table, testLogger())
}

func (s *sandbox) artifacts() []string {
	return []string{s.cfg.BinaryPath, s.cfg.UnitFilePath, s.cfg.ScriptPath, s.cfg.PIDFilePath}
}

// snapshot captures mode and content of every entry under the sandbox root.
func (s *sandbox) snapshot(t *testing.T) map[string]string {
	t.Helper()
	snap := map[string]string{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := info.Mode().String()
		if info.Mode().IsRegular() {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			entry += "|" + string(data)
		}
		snap[path] = entry
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func equalSnapshots(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
