package extractor

import (
	"strconv"

	"github.com/prasenjit/go-hooks/internal/compare"
	"github.com/prasenjit/go-hooks/internal/models"
)

// Wildcard marks the repeated collection in an iterator source
const Wildcard = "*"

// iterate finds the first element of the iterator's collection whose
// sub-path satisfies the iterator condition, then extracts path from that
// element. An iterator source without a wildcard is ignored.
func iterate(path Path, it *models.Iterator, lookup lookupFunc) (any, bool) {
	itPath := ParsePath(it.Source)
	if len(itPath) >= 2 && (itPath[0] == SideRequest || itPath[0] == SideResponse) && itPath[1] == PartBody {
		itPath = itPath[2:]
	}

	star := itPath.indexOf(Wildcard)
	if star < 0 {
		return lookup(path)
	}
	prefix, sub := itPath[:star], itPath[star+1:]

	for i := 0; ; i++ {
		elem := prefix.join(strconv.Itoa(i))
		if _, ok := lookup(elem); !ok {
			return nil, false
		}

		var value any = compare.Missing
		if len(sub) == 0 {
			value, _ = lookup(elem)
		} else if v, ok := lookup(elem.join(sub...)); ok {
			value = v
		}

		if compare.Check(value, it.Operator, it.Condition) {
			return lookup(elementPath(path, prefix, i))
		}
	}
}

// elementPath rewrites path to address element i of the collection at prefix
func elementPath(path, prefix Path, i int) Path {
	idx := strconv.Itoa(i)
	if star := path.indexOf(Wildcard); star >= 0 {
		out := path.join()
		out[star] = idx
		return out
	}
	if path.hasPrefix(prefix) {
		if len(path) > len(prefix) {
			if _, ok := index(path[len(prefix)]); ok {
				return path
			}
		}
		return prefix.join(idx).join(path[len(prefix):]...)
	}
	return path
}
