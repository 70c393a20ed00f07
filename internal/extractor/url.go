package extractor

import (
	"net/url"
	"strings"
)

// URL components addressable after the url segment
const (
	URLHost     = "host"
	URLProtocol = "protocol"
	URLPath     = "path"
	URLQuery    = "query"
	URLHash     = "hash"
)

func urlValue(raw string, rest Path) (any, bool) {
	if len(rest) == 0 {
		return raw, true
	}
	if len(rest) > 2 {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return nil, false
	}

	if len(rest) == 2 {
		switch rest[0] {
		case URLQuery:
			return param(u.RawQuery, rest[1])
		case URLHash:
			return param(u.EscapedFragment(), rest[1])
		default:
			return nil, false
		}
	}

	switch rest[0] {
	case URLHost:
		return u.Host, true
	case URLProtocol:
		return u.Scheme + ":", true
	case URLPath:
		p := u.EscapedPath()
		if p == "" {
			p = "/"
		}
		return p, true
	case URLQuery:
		return u.RawQuery, true
	case URLHash:
		return u.EscapedFragment(), true
	default:
		return nil, false
	}
}

// param decodes a key=value&... string and returns the first value for key.
// Fragments are not always valid query strings, so pairs are split by hand
// and undecodable parts are kept verbatim.
func param(raw, key string) (any, bool) {
	if raw == "" {
		return nil, false
	}
	for _, pair := range strings.Split(raw, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if unescape(k) == key {
			return unescape(v), true
		}
	}
	return nil, false
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}
