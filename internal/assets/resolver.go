// Package assets translates the kernel's resource-fetch requests into
// lookups against the kernel's on-disk distribution.
package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/meshforge/meshforge/internal/hostenv"
)

// DefaultCandidates returns the ordered probe directories for a kernel
// install: the distribution directory itself, its wasm subdirectory, and
// the supporting virtual-filesystem package's distribution directory.
func DefaultCandidates(kernelDir string) []string {
	return []string{
		kernelDir,
		filepath.Join(kernelDir, "wasm"),
		filepath.Join(kernelDir, "..", "wasmfs", "dist"),
	}
}

// Resolver maps a requested resource name to the first matching file in an
// ordered list of candidate directories. The backing files never change at
// runtime, so a Resolver is safe to share across concurrent jobs.
type Resolver struct {
	dirs []string
	log  *zap.Logger
}

// NewResolver creates a resolver probing dirs in order.
func NewResolver(dirs []string, log *zap.Logger) *Resolver {
	return &Resolver{dirs: dirs, log: log}
}

var _ hostenv.Fetcher = (*Resolver)(nil)

// Lookup resolves a name or relative path to file bytes. An unresolved name
// returns hostenv.ErrAssetNotFound after logging the attempted candidates;
// only genuine I/O failures (permission, corruption) return a different
// error.
func (r *Resolver) Lookup(name string) ([]byte, error) {
	base := hostenv.ParseLocator(name, "").Name()
	if base == "" {
		return nil, hostenv.ErrAssetNotFound
	}

	candidates := r.Candidates(base)
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return nil, fmt.Errorf("reading %s: %w", candidate, err)
	}

	r.log.Debug("asset did not resolve",
		zap.String("name", base),
		zap.Strings("candidates", candidates))
	return nil, hostenv.ErrAssetNotFound
}

// Candidates returns the full paths probed for a resource name, in order.
func (r *Resolver) Candidates(name string) []string {
	paths := make([]string, 0, len(r.dirs))
	for _, dir := range r.dirs {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths
}
