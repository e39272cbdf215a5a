// Package strings holds small string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits v on sep, trims every element and drops empty and
// repeated entries. Order of first appearance is kept.
func SplitList(v, sep string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, sep)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
