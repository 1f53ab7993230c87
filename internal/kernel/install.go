// Package kernel loads and invokes the embedded geometry-compilation
// module inside a worker's host environment. The module itself is treated
// as an opaque function from script text and arguments to output files.
package kernel

import (
	"fmt"
	"os"
	"path/filepath"
)

// ModuleFile is the kernel module's filename inside the distribution
// directory.
const ModuleFile = "openscad.wasm"

// bundleFiles are optional supporting resources the kernel probes at load
// time. A missing entry is not an error; the kernel tolerates the empty
// buffer the fetch contract hands back.
var bundleFiles = []string{"openscad.data", "fonts.conf"}

// Install describes a located kernel distribution.
type Install struct {
	Dir        string
	ModulePath string
}

// Locate verifies that the kernel module and its asset bundle exist at the
// versioned install location.
func Locate(dir string) (*Install, error) {
	if dir == "" {
		return nil, fmt.Errorf("kernel install directory is not set")
	}
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("kernel asset bundle unavailable at %s: %w", dir, err)
	}
	modulePath := filepath.Join(dir, ModuleFile)
	if _, err := os.Stat(modulePath); err != nil {
		return nil, fmt.Errorf("kernel module missing at %s: %w", modulePath, err)
	}
	return &Install{Dir: dir, ModulePath: modulePath}, nil
}
