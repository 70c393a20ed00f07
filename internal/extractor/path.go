package extractor

import (
	"strconv"
	"strings"
)

// Path is an ordered sequence of segments identifying a location within an
// exchange, e.g. [response body data 0 name].
type Path []string

// ParsePath splits a dotted path into segments
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// String joins the segments back into dotted form
func (p Path) String() string {
	return strings.Join(p, ".")
}

// indexOf returns the position of the first segment equal to seg, or -1
func (p Path) indexOf(seg string) int {
	for i, s := range p {
		if s == seg {
			return i
		}
	}
	return -1
}

// hasPrefix reports whether p starts with every segment of prefix
func (p Path) hasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// join returns a new path made of p followed by segs
func (p Path) join(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// index parses a non-negative integer segment
func index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
