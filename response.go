package restrequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/apankov/kohana-restrequest/internal/transfer"
)

// Response is the immutable outcome of one executed request. Every decoding
// view is computed on demand from the stored body, so a Response may be
// shared between goroutines.
type Response struct {
	body        []byte
	statusCode  int
	status      string
	header      http.Header
	proto       string
	unmarshaler Unmarshaler
}

// NewResponse wraps a body and status code, e.g. for tests or replayed payloads.
func NewResponse(body []byte, statusCode int) *Response {
	return &Response{
		body:        append([]byte(nil), body...),
		statusCode:  statusCode,
		status:      strconv.Itoa(statusCode) + " " + http.StatusText(statusCode),
		header:      http.Header{},
		unmarshaler: DefaultUnmarshaler,
	}
}

func newResponse(result *transfer.Result, u Unmarshaler) *Response {
	if u == nil {
		u = DefaultUnmarshaler
	}
	header := result.Header
	if header == nil {
		header = http.Header{}
	}
	return &Response{
		body:        result.Body,
		statusCode:  result.StatusCode,
		status:      result.Status,
		header:      header,
		proto:       result.Proto,
		unmarshaler: u,
	}
}

// Text returns the raw body unchanged.
func (r *Response) Text() string {
	return string(r.body)
}

// Bytes returns a copy of the raw body.
func (r *Response) Bytes() []byte {
	return append([]byte(nil), r.body...)
}

// XML parses the body into a node tree.
func (r *Response) XML() (*XMLNode, error) {
	node, err := ParseXML(r.body)
	if err != nil {
		return nil, newParseError("XML", err)
	}
	return node, nil
}

// JSON decodes the body. With assoc set the result is built from
// map[string]any, []any and scalars, integers that fit become int64 and
// other numbers float64; otherwise it is a gjson.Result that supports path
// queries. Malformed JSON is a ParseError with a nil value.
func (r *Response) JSON(assoc bool) (any, error) {
	if !assoc {
		result, err := r.JSONResult()
		if err != nil {
			return nil, err
		}
		return result, nil
	}

	dec := json.NewDecoder(bytes.NewReader(r.body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, newParseError("JSON", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newParseError("JSON", errors.New("invalid character after top-level value"))
	}
	return convertNumbers(v), nil
}

// convertNumbers replaces json.Number values in place.
func convertNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = convertNumbers(item)
		}
	case []any:
		for i, item := range t {
			t[i] = convertNumbers(item)
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

// JSONResult returns the body as a gjson.Result.
func (r *Response) JSONResult() (gjson.Result, error) {
	if !gjson.ValidBytes(r.body) {
		return gjson.Result{}, newParseError("JSON", errors.New("invalid JSON"))
	}
	return gjson.ParseBytes(r.body), nil
}

// DecodeJSON decodes the body into v with the client's Unmarshaler.
func (r *Response) DecodeJSON(v any) error {
	u := r.unmarshaler
	if u == nil {
		u = DefaultUnmarshaler
	}
	if err := u.Unmarshal(r.body, v); err != nil {
		return newParseError("JSON", err)
	}
	return nil
}

// DecodeXML decodes the body into v with encoding/xml.
func (r *Response) DecodeXML(v any) error {
	if err := newXMLDecoder(r.body).Decode(v); err != nil {
		return newParseError("XML", err)
	}
	return nil
}

// GetPath looks up a single gjson path in a JSON body. A path that matches
// nothing yields a Result whose Exists reports false.
func (r *Response) GetPath(path string) (gjson.Result, error) {
	if !gjson.ValidBytes(r.body) {
		return gjson.Result{}, newParseError("JSON", errors.New("invalid JSON"))
	}
	return gjson.GetBytes(r.body, path), nil
}

// HTML parses the body as an HTML document.
func (r *Response) HTML() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.body))
	if err != nil {
		return nil, newParseError("HTML", err)
	}
	return doc, nil
}

// StatusCode returns the HTTP status code of this response.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// Status returns the status line text, e.g. "200 OK".
func (r *Response) Status() string {
	return r.status
}

// Header returns a copy of the response header.
func (r *Response) Header() http.Header {
	return r.header.Clone()
}

// Proto returns the protocol the response arrived over, e.g. "HTTP/1.1".
func (r *Response) Proto() string {
	return r.proto
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

// String renders the status code.
func (r *Response) String() string {
	return strconv.Itoa(r.statusCode)
}
