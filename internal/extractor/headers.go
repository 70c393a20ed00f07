package extractor

import "strings"

// headerValue finds the first "name: value" line of a raw header block whose
// name matches. Matching is ASCII case-insensitive.
func headerValue(block, name string) (string, bool) {
	if block == "" || name == "" {
		return "", false
	}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}
