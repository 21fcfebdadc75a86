// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" frames of a raw
// stack trace as produced by runtime/debug.Stack, innermost first.
// Frames of this package are skipped.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}
		if end := strings.IndexByte(line[idx:], ' '); end != -1 {
			line = line[:idx+end]
		}

		internalIdx := strings.Index(line, "/internal/")
		if internalIdx == -1 {
			continue
		}
		frame := line[internalIdx+1:]
		if strings.HasPrefix(frame, "internal/pkg/stacktrace/") {
			continue
		}
		paths = append(paths, frame)
	}
	return paths
}
