package server

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/meshforge/meshforge"
)

// encodeArtifact renders mesh bytes in the transport encoding the design
// tool expects.
func encodeArtifact(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// kindOf names the engine failure kind, when err carries one.
func kindOf(err error) (string, bool) {
	kind, ok := meshforge.KindOf(err)
	if !ok {
		return "", false
	}
	return kind.String(), true
}

func timeoutCtx(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}
