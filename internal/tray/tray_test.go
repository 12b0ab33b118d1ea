package tray

import (
	"os"
	"path/filepath"
	"testing"

	"sonacove/internal/testutils"
)

func TestIconCandidates(t *testing.T) {
	exeDir := filepath.Join("opt", "sonacove")
	got := iconCandidates(exeDir)
	if len(got) != 4 {
		t.Fatalf("iconCandidates() returned %d paths", len(got))
	}
	if got[0] != filepath.Join(exeDir, "icon.ico") {
		t.Errorf("first candidate = %q", got[0])
	}
	if got[3] != filepath.Join(exeDir, "..", "build", "windows", "icon.ico") {
		t.Errorf("last candidate = %q", got[3])
	}
}

func TestLoadIcon(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.ico")
	icon := filepath.Join(dir, "icon.ico")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(icon, []byte{0, 0, 1, 0}, 0o644); err != nil {
		t.Fatal(err)
	}

	if got := loadIcon([]string{filepath.Join(dir, "missing.ico"), empty, icon}); len(got) != 4 {
		t.Errorf("loadIcon() = %v, want the first non-empty file", got)
	}
	if got := loadIcon([]string{filepath.Join(dir, "missing.ico")}); got != nil {
		t.Errorf("loadIcon() = %v, want nil", got)
	}
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m := NewManager(Dependencies{}, &testutils.RecordingLogger{})
	m.closeStop()
	m.closeStop()
	select {
	case <-m.stop:
	default:
		t.Error("stop channel should be closed")
	}
}

func TestCall(t *testing.T) {
	call(nil)
	ran := false
	call(func() { ran = true })
	if !ran {
		t.Error("call did not run the action")
	}
}
