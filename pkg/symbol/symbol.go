// Package symbol canonicalizes compiler symbol names into function identities.
//
// GCC emits several raw names for one source function when it specializes or
// splits it: foo.constprop.0, foo.part.1, foo.isra.2 and so on. All of them
// describe the same logical function for stack analysis, so every table and
// graph in stackdepth keys on the normalized form returned by [Normalize].
package symbol

import "strings"

// Separator starts a clone or part suffix in a raw compiler symbol.
const Separator = "."

// Normalize truncates name at its first [Separator].
//
// Names whose prefix before the separator is empty (local labels such as
// ".L42") are returned unchanged, so the result is never empty for a
// non-empty input. Normalize is idempotent.
func Normalize(name string) string {
	i := strings.Index(name, Separator)
	if i <= 0 {
		return name
	}
	return name[:i]
}

// NormalizeAll normalizes every name, dropping empty entries and duplicates
// while keeping first-seen order.
func NormalizeAll(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = Normalize(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
