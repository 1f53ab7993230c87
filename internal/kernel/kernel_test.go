package kernel

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocate_EmptyDir(t *testing.T) {
	if _, err := Locate(""); err == nil {
		t.Error("empty install directory should fail")
	}
}

func TestLocate_MissingDir(t *testing.T) {
	if _, err := Locate(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("absent install directory should fail")
	}
}

func TestLocate_MissingModule(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openscad.data"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Locate(dir); err == nil {
		t.Error("install without the kernel module should fail")
	}
}

func TestLocate_Complete(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ModuleFile), []byte("\x00asm"), 0o644); err != nil {
		t.Fatal(err)
	}
	inst, err := Locate(dir)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if inst.Dir != dir {
		t.Errorf("Dir = %q, want %q", inst.Dir, dir)
	}
	if inst.ModulePath != filepath.Join(dir, ModuleFile) {
		t.Errorf("ModulePath = %q", inst.ModulePath)
	}
}

func TestError_ReportsKernelText(t *testing.T) {
	err := &Error{Message: "ERROR: Parser error in line 3: syntax error"}
	if err.Error() != "ERROR: Parser error in line 3: syntax error" {
		t.Errorf("kernel text must pass through unmodified, got %q", err.Error())
	}
}

func TestKernelMessage_PrefersStderr(t *testing.T) {
	var stderr bytes.Buffer
	stderr.WriteString("ERROR: CGAL assertion\n")
	got := kernelMessage(&stderr, errors.New("module closed with exit_code(1)"))
	if got != "ERROR: CGAL assertion" {
		t.Errorf("got %q, want trimmed stderr", got)
	}
}

func TestKernelMessage_FallsBackToExitError(t *testing.T) {
	var stderr bytes.Buffer
	got := kernelMessage(&stderr, errors.New("module closed with exit_code(1)"))
	if got != "module closed with exit_code(1)" {
		t.Errorf("got %q", got)
	}
}
