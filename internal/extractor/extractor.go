// Package extractor reads values out of an HTTP exchange snapshot by path.
//
// The first path segment selects the side (request or response) and the
// second one the part: body, headers or url. A path that does not resolve
// yields found == false, the equivalent of "no data"; a JSON null yields a nil
// value with found == true.
package extractor

import (
	"strings"

	"github.com/prasenjit/go-hooks/internal/models"
)

// Path segments selecting the side and part of an exchange
const (
	SideRequest  = "request"
	SideResponse = "response"
	PartBody     = "body"
	PartHeaders  = "headers"
	PartURL      = "url"
)

// Source is the data an Extractor reads from. Bodies are nil when they were
// not materialized.
type Source struct {
	Request      *models.Request
	Response     *models.Response
	RequestBody  *string
	ResponseBody *string
}

// lookupFunc resolves a path relative to a parsed body
type lookupFunc func(path Path) (any, bool)

// Extractor resolves paths against one Source. Parsed bodies are kept for the
// lifetime of the Extractor, so it must not be shared between goroutines.
type Extractor struct {
	src     Source
	lookups map[string]lookupFunc
}

// New creates an extractor over src
func New(src Source) *Extractor {
	return &Extractor{
		src:     src,
		lookups: make(map[string]lookupFunc),
	}
}

// ExtractString is Extract for a dotted path
func (e *Extractor) ExtractString(path string, it *models.Iterator) (any, bool) {
	return e.Extract(ParsePath(path), it)
}

// Extract returns the value found at path. When it is not nil, body
// extraction selects the first element of the iterator's collection that
// satisfies the iterator condition.
func (e *Extractor) Extract(path Path, it *models.Iterator) (any, bool) {
	if len(path) < 2 {
		return nil, false
	}

	side := path[0]
	if side != SideRequest && side != SideResponse {
		return nil, false
	}

	rest := path[2:]
	switch path[1] {
	case PartBody:
		return e.extractBody(side, rest, it)
	case PartHeaders:
		if len(rest) != 1 {
			return nil, false
		}
		value, ok := headerValue(e.headers(side), rest[0])
		if !ok {
			return nil, false
		}
		return value, true
	case PartURL:
		return urlValue(e.url(side), rest)
	default:
		return nil, false
	}
}

func (e *Extractor) extractBody(side string, rest Path, it *models.Iterator) (any, bool) {
	raw := e.body(side)
	if raw == nil {
		return nil, false
	}
	if len(rest) == 0 {
		return *raw, true
	}

	lookup, ok := e.lookups[side]
	if !ok {
		contentType, _ := headerValue(e.headers(side), "content-type")
		lookup = newLookup(contentType, *raw)
		e.lookups[side] = lookup
	}
	if lookup == nil {
		return nil, false
	}

	if it != nil {
		return iterate(rest, it, lookup)
	}
	return lookup(rest)
}

// newLookup picks a body parser from the declared content type, falling back
// to whichever format the body parses as. It returns nil for bodies that are
// neither JSON nor XML.
func newLookup(contentType, raw string) lookupFunc {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return jsonLookup(raw)
	case strings.Contains(ct, "xml"):
		return xmlLookup(raw)
	}

	if lookup := jsonLookup(raw); lookup != nil {
		return lookup
	}
	return xmlLookup(raw)
}

func (e *Extractor) body(side string) *string {
	if side == SideRequest {
		return e.src.RequestBody
	}
	return e.src.ResponseBody
}

func (e *Extractor) headers(side string) string {
	if side == SideRequest {
		if e.src.Request == nil {
			return ""
		}
		return e.src.Request.Headers
	}
	if e.src.Response == nil {
		return ""
	}
	return e.src.Response.Headers
}

func (e *Extractor) url(side string) string {
	if side == SideRequest {
		if e.src.Request == nil {
			return ""
		}
		return e.src.Request.URL
	}
	if e.src.Response == nil {
		return ""
	}
	return e.src.Response.URL
}
