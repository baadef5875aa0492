package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic_CreatesFileWithMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "svc.service")

	if err := WriteFileAtomic(path, []byte("hello"), 0o755); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() = %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("perm = %04o, want 0755", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svc")

	if err := WriteFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatalf("first write = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatalf("second write = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file leaked?)", len(entries))
	}
}

func TestPromote_ReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	staged := filepath.Join(dir, "bin.download")
	target := filepath.Join(dir, "bin")

	if err := os.WriteFile(target, []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(staged, []byte("new"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Promote(staged, target); err != nil {
		t.Fatalf("Promote() = %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "new" {
		t.Errorf("target = %q, want %q", data, "new")
	}
	if Exists(staged) {
		t.Error("staged file still exists after promote")
	}
}

func TestPromote_MissingStagedKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "bin")
	if err := os.WriteFile(target, []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := Promote(filepath.Join(dir, "missing"), target); err == nil {
		t.Fatal("Promote() = nil, want error for missing staged file")
	}

	data, _ := os.ReadFile(target)
	if string(data) != "old" {
		t.Errorf("target = %q, want %q", data, "old")
	}
}

func TestRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pid")
	if err := os.WriteFile(path, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := RemoveIfExists(path)
	if err != nil || !removed {
		t.Fatalf("RemoveIfExists() = %v, %v; want true, nil", removed, err)
	}

	removed, err = RemoveIfExists(path)
	if err != nil || removed {
		t.Fatalf("second RemoveIfExists() = %v, %v; want false, nil", removed, err)
	}
}
