package extractor

import (
	"reflect"
	"strings"
	"testing"

	"github.com/prasenjit/go-hooks/internal/models"
)

const peopleXML = `<?xml version="1.0"?>
<people xmlns:xul="some.xul" boolean-attribute="true">
  <person db-id="test1">
    <name first="george" last="bush" />
    <address street="1600 pennsylvania avenue" city="washington" country="usa"/>
    <phoneNumber>202-456-1111</phoneNumber>
  </person>
  <person db-id="test2">
    <name first="tony" last="blair" />
    <address street="10 downing street" city="london" country="uk"/>
    <phoneNumber>020 7925 0918</phoneNumber>
  </person>
</people>`

const pageJSON = `{
  "nextPageToken": "test-token",
  "data": [{
    "name": "test1"
  }, {
    "name": "test2"
  }, {
    "name": "test3",
    "value": "array",
    "deep": {
      "booleanValue": true,
      "nullValue": null,
      "numberValue": 2,
      "arrayValue": ["test1", "test2"]
    }
  }]
}`

const testURL = "https://auth.domain.com/path/auth?query=value&a=b#hparam=hvalue&c=d"

func newResponseExtractor(body, headers string) *Extractor {
	return New(Source{
		Request:      &models.Request{URL: "/", Method: "GET"},
		Response:     &models.Response{URL: testURL, Status: 200, Headers: headers},
		ResponseBody: &body,
	})
}

func newRequestExtractor(body, headers string) *Extractor {
	return New(Source{
		Request:     &models.Request{URL: testURL, Method: "POST", Headers: headers},
		Response:    &models.Response{Status: 200},
		RequestBody: &body,
	})
}

// expectFound fails unless path resolves to want
func expectFound(t *testing.T, ex *Extractor, path Path, want any) {
	t.Helper()
	value, ok := ex.Extract(path, nil)
	if !ok {
		t.Fatalf("Expected %s to resolve", path)
	}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("%s: expected %#v, got %#v", path, want, value)
	}
}

// expectMissing fails if path resolves
func expectMissing(t *testing.T, ex *Extractor, path Path) {
	t.Helper()
	if value, ok := ex.Extract(path, nil); ok {
		t.Errorf("Expected %s not to resolve, got %#v", path, value)
	}
}

func TestExtractXML(t *testing.T) {
	for _, side := range []string{SideRequest, SideResponse} {
		t.Run(side, func(t *testing.T) {
			var ex *Extractor
			if side == SideRequest {
				ex = newRequestExtractor(peopleXML, "content-type: application/xml")
			} else {
				ex = newResponseExtractor(peopleXML, "content-type: application/xml")
			}

			value, ok := ex.ExtractString(side+".body.people.person", nil)
			if !ok {
				t.Fatal("Expected person list to resolve")
			}
			if s, _ := value.(string); !strings.Contains(s, "<name") {
				t.Errorf("Expected serialized elements, got %#v", value)
			}

			value, ok = ex.Extract(Path{side, "body", "people", "person"}, nil)
			if !ok {
				t.Fatal("Expected person list to resolve")
			}
			if s, _ := value.(string); !strings.Contains(s, "<name") {
				t.Errorf("Expected serialized elements, got %#v", value)
			}

			tests := []struct {
				name string
				path Path
				want string
			}{
				{"leaf text", Path{side, "body", "people", "person", "1", "phoneNumber"}, "020 7925 0918"},
				{"attribute", Path{side, "body", "people", "person", "0", "attr(db-id)"}, "test1"},
				{"nested attribute", Path{side, "body", "people", "person", "1", "name", "attr(first)"}, "tony"},
				{"prefixed attribute", Path{side, "body", "people", "attr(xmlns:xul)"}, "some.xul"},
				{"boolean attribute", Path{side, "body", "people", "attr(boolean-attribute)"}, "true"},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					expectFound(t, ex, tt.path, tt.want)
				})
			}
		})
	}
}

func TestExtractXMLMisses(t *testing.T) {
	ex := newResponseExtractor(peopleXML, "content-type: text/xml")

	paths := []Path{
		{"response", "body", "people", "person", "2"},
		{"response", "body", "people", "nobody"},
		{"response", "body", "people", "attr(missing)"},
		{"response", "body", "people", "attr(xmlns:xul)", "more"},
		{"response", "body", "0"},
	}
	for _, p := range paths {
		t.Run(p.String(), func(t *testing.T) {
			expectMissing(t, ex, p)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	for _, side := range []string{SideRequest, SideResponse} {
		t.Run(side, func(t *testing.T) {
			var ex *Extractor
			if side == SideRequest {
				ex = newRequestExtractor(pageJSON, "content-type: application/json")
			} else {
				ex = newResponseExtractor(pageJSON, "content-type: application/json")
			}

			value, ok := ex.ExtractString(side+".body.nextPageToken", nil)
			if !ok || value != "test-token" {
				t.Errorf("Expected test-token, got %#v (found %v)", value, ok)
			}

			expectFound(t, ex, Path{side, "body", "data", "1", "name"}, "test2")
			expectFound(t, ex, Path{side, "body", "data", "2", "deep", "booleanValue"}, true)
			// null is a found value
			expectFound(t, ex, Path{side, "body", "data", "2", "deep", "nullValue"}, nil)
			expectFound(t, ex, Path{side, "body", "data", "2", "deep", "numberValue"}, float64(2))
			expectFound(t, ex, Path{side, "body", "data", "2", "deep", "arrayValue", "1"}, "test2")
			expectMissing(t, ex, Path{side, "body", "data", "7", "name"})
		})
	}
}

func TestExtractJSONSpecialKeys(t *testing.T) {
	ex := newResponseExtractor(`{"a.b": 1, "c*": {"#": "hash"}, "@this": "at"}`, "")

	expectFound(t, ex, Path{"response", "body", "a.b"}, float64(1))
	expectFound(t, ex, Path{"response", "body", "c*", "#"}, "hash")
	expectFound(t, ex, Path{"response", "body", "@this"}, "at")
	expectMissing(t, ex, Path{"response", "body", ""})
}

func TestExtractBodyDetection(t *testing.T) {
	t.Run("json without content type", func(t *testing.T) {
		ex := newResponseExtractor(pageJSON, "")
		expectFound(t, ex, Path{"response", "body", "nextPageToken"}, "test-token")
	})

	t.Run("xml without content type", func(t *testing.T) {
		ex := newResponseExtractor(peopleXML, "")
		expectFound(t, ex, Path{"response", "body", "people", "person", "0", "attr(db-id)"}, "test1")
	})

	t.Run("plain text", func(t *testing.T) {
		ex := newResponseExtractor("hello world", "content-type: text/plain")
		expectMissing(t, ex, Path{"response", "body", "hello"})
		expectFound(t, ex, Path{"response", "body"}, "hello world")
	})

	t.Run("declared json that is not json", func(t *testing.T) {
		ex := newResponseExtractor("<a>1</a>", "content-type: application/json")
		expectMissing(t, ex, Path{"response", "body", "a"})
	})

	t.Run("body not read", func(t *testing.T) {
		ex := New(Source{Response: &models.Response{Status: 200}})
		expectMissing(t, ex, Path{"response", "body"})
	})
}

func TestExtractHeaders(t *testing.T) {
	headers := "content-type: application/json\nx-www-token: test-token\r\ncontent-encoding: gzip"
	ex := newResponseExtractor("{}", headers)

	tests := []struct {
		name  string
		path  Path
		want  any
		found bool
	}{
		{"default header", Path{"response", "headers", "content-type"}, "application/json", true},
		{"custom header", Path{"response", "headers", "x-www-token"}, "test-token", true},
		{"case insensitive", Path{"response", "headers", "Content-Encoding"}, "gzip", true},
		{"whole block", Path{"response", "headers"}, nil, false},
		{"missing header", Path{"response", "headers", "not-there"}, nil, false},
		{"too deep", Path{"response", "headers", "content-type", "x"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.found {
				expectFound(t, ex, tt.path, tt.want)
			} else {
				expectMissing(t, ex, tt.path)
			}
		})
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		want  any
		found bool
	}{
		{"whole url", Path{"url"}, testURL, true},
		{"host", Path{"url", "host"}, "auth.domain.com", true},
		{"protocol", Path{"url", "protocol"}, "https:", true},
		{"path", Path{"url", "path"}, "/path/auth", true},
		{"query", Path{"url", "query"}, "query=value&a=b", true},
		{"query param", Path{"url", "query", "query"}, "value", true},
		{"query param 2", Path{"url", "query", "a"}, "b", true},
		{"unknown query param", Path{"url", "query", "c"}, nil, false},
		{"hash", Path{"url", "hash"}, "hparam=hvalue&c=d", true},
		{"hash param", Path{"url", "hash", "hparam"}, "hvalue", true},
		{"hash param 2", Path{"url", "hash", "c"}, "d", true},
		{"unknown hash param", Path{"url", "hash", "e"}, nil, false},
		{"unknown part", Path{"url", "port"}, nil, false},
		{"host with key", Path{"url", "host", "x"}, nil, false},
	}
	for _, side := range []string{SideRequest, SideResponse} {
		var ex *Extractor
		if side == SideRequest {
			ex = newRequestExtractor("", "")
		} else {
			ex = newResponseExtractor("", "")
		}
		for _, tt := range tests {
			t.Run(side+" "+tt.name, func(t *testing.T) {
				path := Path{side}.join(tt.path...)
				if tt.found {
					expectFound(t, ex, path, tt.want)
				} else {
					expectMissing(t, ex, path)
				}
			})
		}
	}
}

func TestExtractRelativeURL(t *testing.T) {
	ex := New(Source{Request: &models.Request{URL: "/relative?a=b"}})

	expectFound(t, ex, Path{"request", "url"}, "/relative?a=b")
	expectMissing(t, ex, Path{"request", "url", "query", "a"})
}

func TestExtractInvalidPaths(t *testing.T) {
	ex := newResponseExtractor(pageJSON, "")

	for _, p := range []string{"", "response", "other.body.x", "response.cookies.a"} {
		t.Run(p, func(t *testing.T) {
			value, ok := ex.ExtractString(p, nil)
			if ok || value != nil {
				t.Errorf("Expected %q not to resolve, got %#v (found %v)", p, value, ok)
			}
		})
	}
}
