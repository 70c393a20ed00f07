package extractor

import (
	"strings"

	"github.com/tidwall/gjson"
)

// gjsonSpecial lists the characters gjson treats as path syntax
const gjsonSpecial = `\.*?|#@!=<>%[]{}(),:"`

// jsonLookup returns a lookup over raw, or nil when raw is not valid JSON
func jsonLookup(raw string) lookupFunc {
	if !gjson.Valid(raw) {
		return nil
	}
	root := gjson.Parse(raw)
	return func(path Path) (any, bool) {
		expr, ok := gjsonPath(path)
		if !ok {
			return nil, false
		}
		res := root.Get(expr)
		if !res.Exists() {
			return nil, false
		}
		return res.Value(), true
	}
}

// gjsonPath escapes every segment so keys are matched literally
func gjsonPath(path Path) (string, bool) {
	parts := make([]string, len(path))
	for i, seg := range path {
		if seg == "" {
			return "", false
		}
		parts[i] = escapeSegment(seg)
	}
	return strings.Join(parts, "."), true
}

func escapeSegment(seg string) string {
	if !strings.ContainsAny(seg, gjsonSpecial) {
		return seg
	}
	var b strings.Builder
	for _, r := range seg {
		if strings.ContainsRune(gjsonSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
