package initsys

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSystemdWriteDefinition_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	s := NewSystemd(cfg, newMockRunner(), testLogger())

	for i := 0; i < 2; i++ {
		if res := s.WriteDefinition(); res.Status != StatusOK {
			t.Fatalf("WriteDefinition() #%d = %+v", i+1, res)
		}
	}

	data, err := os.ReadFile(cfg.UnitFilePath)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if string(data) != GenerateUnitFile(cfg) {
		t.Error("unit file content does not match generated unit")
	}
	info, _ := os.Stat(cfg.UnitFilePath)
	if info.Mode().Perm() != 0o644 {
		t.Errorf("unit perm = %04o, want 0644", info.Mode().Perm())
	}
}

func TestSystemdWriteDefinition_FatalOnUnwritablePath(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the unit directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.UnitFilePath = filepath.Join(blocker, "svcagent.service")

	res := NewSystemd(cfg, newMockRunner(), testLogger()).WriteDefinition()
	if res.Status != StatusFatal {
		t.Errorf("WriteDefinition() status = %v, want fatal", res.Status)
	}
}

func TestSystemdEnable_ReloadsThenEnables(t *testing.T) {
	runner := newMockRunner("systemctl")
	s := NewSystemd(testConfig(t), runner, testLogger())

	if res := s.Enable(context.Background()); res.Status != StatusOK {
		t.Fatalf("Enable() = %+v", res)
	}
	want := []string{"systemctl daemon-reload", "systemctl enable svcagent.service"}
	if strings.Join(runner.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", runner.calls, want)
	}
}

func TestSystemdStart_FailureIsDegraded(t *testing.T) {
	runner := newMockRunner("systemctl")
	runner.fail["systemctl start svcagent.service"] = errCommandFailed
	s := NewSystemd(testConfig(t), runner, testLogger())

	res := s.Start(context.Background())
	if res.Status != StatusDegraded {
		t.Errorf("Start() status = %v, want degraded", res.Status)
	}
	if res.Err == nil {
		t.Error("Start() err = nil, want error")
	}
}

func TestSystemdStop_InactiveIsNoop(t *testing.T) {
	runner := newMockRunner("systemctl")
	runner.fail["systemctl is-active --quiet svcagent.service"] = errCommandFailed
	s := NewSystemd(testConfig(t), runner, testLogger())

	if res := s.Stop(context.Background()); res.Status != StatusOK {
		t.Fatalf("Stop() = %+v, want ok", res)
	}
	if runner.called("systemctl stop svcagent.service") {
		t.Error("systemctl stop invoked for inactive unit")
	}
}

func TestSystemdStop_Active(t *testing.T) {
	runner := newMockRunner("systemctl")
	s := NewSystemd(testConfig(t), runner, testLogger())

	if res := s.Stop(context.Background()); res.Status != StatusOK {
		t.Fatalf("Stop() = %+v", res)
	}
	if !runner.called("systemctl stop svcagent.service") {
		t.Errorf("calls = %v, want systemctl stop", runner.calls)
	}
}

func TestSystemdDisable_NotEnabledIsNoop(t *testing.T) {
	runner := newMockRunner("systemctl")
	runner.fail["systemctl is-enabled --quiet svcagent.service"] = errCommandFailed
	s := NewSystemd(testConfig(t), runner, testLogger())

	if res := s.Disable(context.Background()); res.Status != StatusOK {
		t.Fatalf("Disable() = %+v", res)
	}
	if runner.called("systemctl disable svcagent.service") {
		t.Error("systemctl disable invoked for disabled unit")
	}
}

func TestSystemdIsRunning(t *testing.T) {
	runner := newMockRunner("systemctl")
	s := NewSystemd(testConfig(t), runner, testLogger())
	if !s.IsRunning(context.Background()) {
		t.Error("IsRunning() = false, want true")
	}

	runner.fail["systemctl is-active --quiet svcagent.service"] = errCommandFailed
	if s.IsRunning(context.Background()) {
		t.Error("IsRunning() = true, want false")
	}
}
