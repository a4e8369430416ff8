// Package strings provides string list helpers.
package strings

import (
	"strings"
)

// SplitList splits raw on sep, trims each element and drops empties and repeats.
// Order of first occurrence is preserved. An empty raw yields nil.
//
//	SplitList(" k1:9092, k2:9092,,k1:9092 ", ",")
//	// []string{"k1:9092", "k2:9092"}
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, sep))
}

// DedupeAndTrim trims each element and drops empties and repeats, keeping order.
func DedupeAndTrim(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
