// Package procutil queries, signals and launches host processes.
package procutil

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// commLen is the kernel's TASK_COMM_LEN minus the trailing NUL.
const commLen = 15

// Table abstracts the host process table for testability.
type Table interface {
	// Alive reports whether pid names a running process.
	Alive(pid int) bool

	// Signal delivers sig to pid.
	Signal(pid int, sig syscall.Signal) error

	// FindByName returns the PIDs of processes whose executable basename
	// equals name, or whose comm equals name when name fits in comm. The
	// calling process is never included.
	FindByName(name string) ([]int, error)
}

// Launcher starts a program detached from the calling process.
type Launcher interface {
	// Launch starts path in a new session with stdio on /dev/null and
	// returns its PID without waiting for it.
	Launch(path string, args ...string) (int, error)
}

type hostTable struct {
	procRoot string
}

// NewTable returns a Table backed by kill(2) and the proc filesystem mounted
// at procRoot (normally procfs.DefaultMountPoint).
func NewTable(procRoot string) Table {
	if procRoot == "" {
		procRoot = procfs.DefaultMountPoint
	}
	return &hostTable{procRoot: procRoot}
}

func (t *hostTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	// EPERM means the process exists but belongs to someone else.
	return err == nil || errors.Is(err, unix.EPERM)
}

func (t *hostTable) Signal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("procutil: invalid pid %d", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("procutil: signal %d to pid %d: %w", sig, pid, err)
	}
	return nil
}

func (t *hostTable) FindByName(name string) ([]int, error) {
	fs, err := procfs.NewFS(t.procRoot)
	if err != nil {
		return nil, fmt.Errorf("procutil: open %s: %w", t.procRoot, err)
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("procutil: list processes: %w", err)
	}

	self := os.Getpid()
	var pids []int
	for _, p := range procs {
		if p.PID == self {
			continue
		}
		if matchesName(p, name) {
			pids = append(pids, p.PID)
		}
	}
	return pids, nil
}

func matchesName(p procfs.Proc, name string) bool {
	// Processes can exit between listing and inspection; errors just mean no match.
	if exe, err := p.Executable(); err == nil && exe != "" {
		exe = strings.TrimSuffix(exe, " (deleted)")
		if filepath.Base(exe) == name {
			return true
		}
	}
	// comm is truncated by the kernel, so it only identifies short names.
	if len(name) > commLen {
		return false
	}
	comm, err := p.Comm()
	if err != nil {
		return false
	}
	return comm == name
}

type detachedLauncher struct{}

// NewLauncher returns a Launcher that forks real processes.
func NewLauncher() Launcher {
	return detachedLauncher{}
}

func (detachedLauncher) Launch(path string, args ...string) (int, error) {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("procutil: open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(path, args...)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.Dir = "/"
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("procutil: start %s: %w", path, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("procutil: release pid %d: %w", pid, err)
	}
	return pid, nil
}
