package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/caiolrosa/req/pkg/storage"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// SetJSON sends body as a JSON document.
func (r *Request) SetJSON(body string) {
	r.Body = []byte(body)
	r.ContentType = ContentTypeJSON
}

// SetForm sends body form encoded.
func (r *Request) SetForm(body string) {
	r.Body = []byte(body)
	r.ContentType = ContentTypeForm
}

// FromTemplate converts a resolved template request. POST, PUT and PATCH
// encode a non-nil body as JSON; GET and DELETE never send one.
func FromTemplate(tr storage.Request) (Request, error) {
	req := Request{
		Method:  string(tr.Method),
		URL:     tr.URL,
		Headers: make(map[string]string, len(tr.Headers)),
	}
	for k, v := range tr.Headers {
		req.Headers[k] = v
	}

	if tr.Body != nil && carriesBody(tr.Method) {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(tr.Body); err != nil {
			return Request{}, fmt.Errorf("failed to marshal body: %w", err)
		}
		req.SetJSON(string(bytes.TrimRight(buf.Bytes(), "\n")))
	}
	return req, nil
}

func carriesBody(m storage.Method) bool {
	switch m {
	case storage.MethodPost, storage.MethodPut, storage.MethodPatch:
		return true
	}
	return false
}
