package meshforge

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNewEngine_NilLogger(t *testing.T) {
	e := NewEngine(Config{KernelDir: t.TempDir()}, nil)
	if e == nil {
		t.Fatal("NewEngine returned nil")
	}
}

func TestExecute_EmptyScript(t *testing.T) {
	e := NewEngine(Config{KernelDir: t.TempDir()}, nil)
	_, err := e.Execute(context.Background(), "  \n ")
	kind, ok := KindOf(err)
	if !ok || kind != KindInvalidInput {
		t.Errorf("got %v, want invalid_input", err)
	}
}

func TestRender_MissingKernelInstall(t *testing.T) {
	e := NewEngine(Config{KernelDir: filepath.Join(t.TempDir(), "absent")}, nil)
	_, err := e.Render(context.Background(), "cube(1);")
	kind, ok := KindOf(err)
	if !ok || kind != KindConfiguration {
		t.Errorf("got %v, want configuration_error", err)
	}
}

func TestConfig_DefaultTimeout(t *testing.T) {
	var cfg Config
	if cfg.Timeout() != DefaultRenderTimeout {
		t.Errorf("zero config timeout = %s, want default", cfg.Timeout())
	}
}
