package extractor

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errMalformedXML = errors.New("malformed xml document")

// xmlNode is one element of a parsed document. Names keep their prefix, so
// an attribute written as xmlns:xul is looked up as "xmlns:xul".
type xmlNode struct {
	name     string
	attrs    []xml.Attr
	children []*xmlNode
	text     strings.Builder
	inner    string
}

// xmlLookup returns a lookup over raw, or nil when raw is not well-formed XML
func xmlLookup(raw string) lookupFunc {
	doc, err := parseXML(raw)
	if err != nil {
		return nil
	}
	return doc.lookup
}

// parseXML builds a node tree from raw tokens. The returned node is a
// synthetic document node whose only child is the root element.
func parseXML(raw string) (*xmlNode, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))

	doc := &xmlNode{}
	stack := []*xmlNode{doc}
	var starts []int64

	for {
		before := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			parent := stack[len(stack)-1]
			if parent == doc && len(doc.children) > 0 {
				return nil, errMalformedXML
			}
			node := &xmlNode{name: qualifiedName(t.Name), attrs: t.Copy().Attr}
			parent.children = append(parent.children, node)
			stack = append(stack, node)
			starts = append(starts, dec.InputOffset())
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, errMalformedXML
			}
			node := stack[len(stack)-1]
			if node.name != qualifiedName(t.Name) {
				return nil, errMalformedXML
			}
			node.inner = raw[starts[len(starts)-1]:before]
			stack = stack[:len(stack)-1]
			starts = starts[:len(starts)-1]
		case xml.CharData:
			stack[len(stack)-1].text.Write(t)
		}
	}

	if len(stack) != 1 || len(doc.children) == 0 {
		return nil, errMalformedXML
	}
	return doc, nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// lookup walks path from the document node. A name segment selects every
// child of the first element in the current set carrying that name; an index
// segment narrows the set to one element; attr(name) reads an attribute and
// ends the walk.
func (n *xmlNode) lookup(path Path) (any, bool) {
	set := []*xmlNode{n}
	for i, seg := range path {
		if name, ok := attrName(seg); ok {
			if i != len(path)-1 {
				return nil, false
			}
			return set[0].attr(name)
		}

		if idx, ok := index(seg); ok {
			if idx >= len(set) {
				return nil, false
			}
			set = set[idx : idx+1]
			continue
		}

		var next []*xmlNode
		for _, child := range set[0].children {
			if child.name == seg {
				next = append(next, child)
			}
		}
		if len(next) == 0 {
			return nil, false
		}
		set = next
	}

	if set[0] == n {
		return nil, false
	}
	return set[0].value(), true
}

// value is the trimmed text of a leaf or the inner markup of a branch
func (n *xmlNode) value() string {
	if len(n.children) == 0 {
		return strings.TrimSpace(n.text.String())
	}
	return n.inner
}

func (n *xmlNode) attr(name string) (any, bool) {
	for _, a := range n.attrs {
		if qualifiedName(a.Name) == name {
			return a.Value, true
		}
	}
	return nil, false
}

func attrName(seg string) (string, bool) {
	if !strings.HasPrefix(seg, "attr(") || !strings.HasSuffix(seg, ")") {
		return "", false
	}
	return seg[len("attr(") : len(seg)-1], true
}
