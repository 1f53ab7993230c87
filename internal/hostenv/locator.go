package hostenv

import (
	"path"
	"strings"
)

// Locator is the minimal resource-locator type the kernel's path handling
// needs. It resolves relative references against a base path and exposes the
// final segment as the logical resource name. It is deliberately not a full
// URL implementation; the kernel only ever does path and string handling
// with it.
type Locator struct {
	raw string
}

// ParseLocator resolves ref against base. An absolute ref (or scheme-bearing
// ref) ignores base entirely.
func ParseLocator(ref, base string) Locator {
	ref = strings.TrimSpace(ref)
	if i := strings.Index(ref, "://"); i >= 0 {
		ref = ref[i+3:]
		// Drop the host segment of a scheme-bearing reference.
		if j := strings.IndexByte(ref, '/'); j >= 0 {
			ref = ref[j:]
		} else {
			ref = "/"
		}
	}
	if strings.HasPrefix(ref, "/") || base == "" {
		return Locator{raw: ref}
	}
	return Locator{raw: path.Join(path.Dir(base), ref)}
}

// String returns the resolved path.
func (l Locator) String() string { return l.raw }

// Name returns the final path segment with trailing separators stripped.
// This is the logical resource name used for asset lookup.
func (l Locator) Name() string {
	trimmed := strings.TrimRight(l.raw, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}
