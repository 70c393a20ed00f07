package extractor

import (
	"reflect"
	"testing"

	"github.com/prasenjit/go-hooks/internal/models"
)

const itemsJSON = `{
  "items": [
    {"id": "a1", "kind": "draft", "owner": {"name": "ann"}},
    {"id": "b2", "kind": "final", "owner": {"name": "bob"}},
    {"id": "c3", "kind": "final", "owner": {"name": "cid"}}
  ]
}`

func TestIterator(t *testing.T) {
	ex := newResponseExtractor(itemsJSON, "content-type: application/json")

	tests := []struct {
		name  string
		path  string
		it    models.Iterator
		want  any
		found bool
	}{
		{
			name:  "wildcard in action path",
			path:  "response.body.items.*.id",
			it:    models.Iterator{Source: "items.*.kind", Operator: models.OpEqual, Condition: "final"},
			want:  "b2",
			found: true,
		},
		{
			name:  "qualified iterator source",
			path:  "response.body.items.*.owner.name",
			it:    models.Iterator{Source: "response.body.items.*.kind", Operator: models.OpEqual, Condition: "final"},
			want:  "bob",
			found: true,
		},
		{
			name:  "index inserted after prefix",
			path:  "response.body.items.id",
			it:    models.Iterator{Source: "items.*.owner.name", Operator: models.OpRegex, Condition: "^c"},
			want:  "c3",
			found: true,
		},
		{
			name:  "no element matches",
			path:  "response.body.items.*.id",
			it:    models.Iterator{Source: "items.*.kind", Operator: models.OpEqual, Condition: "archived"},
			found: false,
		},
		{
			name:  "missing sub-path never matches",
			path:  "response.body.items.*.id",
			it:    models.Iterator{Source: "items.*.nothing", Operator: models.OpEqual, Condition: "x"},
			found: false,
		},
		{
			name:  "iterator without wildcard is ignored",
			path:  "response.body.items.0.id",
			it:    models.Iterator{Source: "items.kind", Operator: models.OpEqual, Condition: "final"},
			want:  "a1",
			found: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := tt.it
			value, ok := ex.ExtractString(tt.path, &it)
			if ok != tt.found {
				t.Errorf("Expected found %v, got %v", tt.found, ok)
			}
			if !reflect.DeepEqual(value, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, value)
			}
		})
	}
}

func TestIteratorXML(t *testing.T) {
	ex := newResponseExtractor(peopleXML, "content-type: application/xml")

	it := &models.Iterator{Source: "people.person.*.name.attr(last)", Operator: models.OpEqual, Condition: "blair"}
	value, ok := ex.ExtractString("response.body.people.person.*.phoneNumber", it)
	if !ok {
		t.Fatal("Expected a matching person")
	}
	if value != "020 7925 0918" {
		t.Errorf("Expected phone number of blair, got %v", value)
	}
}

func TestElementPath(t *testing.T) {
	prefix := Path{"items"}

	tests := []struct {
		path     Path
		index    int
		expected Path
	}{
		{Path{"items", "*", "id"}, 2, Path{"items", "2", "id"}},
		{Path{"items", "id"}, 1, Path{"items", "1", "id"}},
		{Path{"items", "0", "id"}, 3, Path{"items", "0", "id"}},
		{Path{"other"}, 1, Path{"other"}},
	}

	for _, tt := range tests {
		if got := elementPath(tt.path, prefix, tt.index); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("elementPath(%v, %d) = %v, want %v", tt.path, tt.index, got, tt.expected)
		}
	}
}

func TestParsePath(t *testing.T) {
	if p := ParsePath(""); p != nil {
		t.Errorf("Expected nil path, got %v", p)
	}
	if p := ParsePath("response.body.a"); !reflect.DeepEqual(p, Path{"response", "body", "a"}) {
		t.Errorf("Unexpected path %v", p)
	}
	if s := (Path{"response", "body", "a"}).String(); s != "response.body.a" {
		t.Errorf("Unexpected string %q", s)
	}
}
