package storage

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Method is an HTTP method a template may use.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// Methods lists every supported method.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete}

// ParseMethod converts a case-insensitive method name.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q", s)
}

// Request is the document stored for a template.
type Request struct {
	URL     string            `json:"url" yaml:"url"`             // Request URL, may contain placeholders
	Method  Method            `json:"method" yaml:"method"`       // HTTP method
	Headers map[string]string `json:"headers" yaml:"headers"`     // HTTP headers
	Body    any               `json:"body" yaml:"body,omitempty"` // Arbitrary JSON body, nil for none
}

// DefaultRequest is the document a new template starts from.
func DefaultRequest() Request {
	return Request{
		URL:     "",
		Method:  MethodGet,
		Headers: map[string]string{},
		Body:    nil,
	}
}

// normalize fills a missing header map and turns an empty object body into no body.
func (r *Request) normalize() {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	if obj, ok := r.Body.(map[string]any); ok && len(obj) == 0 {
		r.Body = nil
	}
}

const requestSchemaJSON = `{
  "type": "object",
  "required": ["url", "method", "headers"],
  "properties": {
    "url": {"type": "string"},
    "method": {"enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
    "headers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "body": {}
  }
}`

var requestSchema = mustSchema(requestSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return schema
}

// ParseRequest validates data against the request schema and decodes it.
// Numbers in the body are kept as json.Number so they round-trip unchanged.
func ParseRequest(data []byte) (Request, error) {
	result, err := requestSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Request{}, fmt.Errorf("%w: %s", ErrMalformedDocument, strings.Join(msgs, "; "))
	}

	var req Request
	if err := decodeJSON(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	req.normalize()
	return req, nil
}
