// Package slug derives URL-safe identifiers from display names. Uniqueness
// against the persisted catalog is handled by the store; this package only
// performs the pure normalization step.
package slug

import "strings"

// Make normalizes a display name into a base slug: lowercase, characters
// outside [a-z0-9 -] stripped, and runs of whitespace collapsed into single
// hyphens. Degenerate names can normalize to the empty string; callers must
// supply their own fallback identifier in that case.
func Make(name string) string {
	lowered := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r':
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), "-")
}
