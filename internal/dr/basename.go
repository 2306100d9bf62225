package dr

import "strings"

// DefaultReplicaPatterns are the replica name markers, in matching order.
var DefaultReplicaPatterns = []string{"_dr", "_replica", "_rep", "-dr", "-replica", "-rep", "_backup", "-backup"}

// BaseName lowercases name and removes every occurrence of the first
// pattern it contains. Later patterns are not tried once one matched.
func BaseName(name string, patterns []string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, p := range patterns {
		if strings.Contains(n, p) {
			return strings.ReplaceAll(n, p, "")
		}
	}
	return n
}

// HasReplicaPattern reports whether name carries any replica marker.
func HasReplicaPattern(name string, patterns []string) bool {
	n := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}
