package capture

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Source selects where a rule looks for its value
type Source string

const (
	SourceResponse Source = "response"
	SourceHeader   Source = "header"
	SourceCookie   Source = "cookie"
)

// Valid reports whether s is a known source. Empty counts as SourceResponse.
func (s Source) Valid() bool {
	switch s {
	case "", SourceResponse, SourceHeader, SourceCookie:
		return true
	}
	return false
}

// Rule names a value to pull out of a response
type Rule struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`
}

// Response is the part of a response that extraction reads
type Response struct {
	StatusCode int                 `json:"statusCode"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       any                 `json:"body,omitempty"`
}

type Extractor struct {
	response *Response
	bodyJSON gjson.Result
	cookies  map[string]string
}

func NewExtractor(resp *Response) *Extractor {
	if resp == nil {
		resp = &Response{}
	}
	return &Extractor{
		response: resp,
		bodyJSON: parseBody(resp.Body),
	}
}

func (e *Extractor) Extract(rule Rule) (any, bool) {
	switch rule.Source {
	case "", SourceResponse:
		return e.extractFromBody(rule.Path)
	case SourceHeader:
		return e.extractFromHeader(rule.Path)
	case SourceCookie:
		return e.extractFromCookie(rule.Path)
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		if path == "" {
			if s, ok := e.response.Body.(string); ok {
				return s, true
			}
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(toGJSONPath(path))
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	values := lookupHeader(e.response.Headers, name)
	if len(values) == 0 {
		return nil, false
	}
	return strings.Join(values, ", "), true
}

func (e *Extractor) extractFromCookie(name string) (any, bool) {
	if e.cookies == nil {
		e.cookies = ParseSetCookie(lookupHeader(e.response.Headers, "Set-Cookie"))
	}
	v, ok := e.cookies[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// ExtractAll applies every rule and returns the values that were found
func ExtractAll(resp *Response, rules []Rule) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for _, r := range rules {
		if value, ok := extractor.Extract(r); ok {
			results[r.Name] = value
		}
	}

	return results
}

// ExtractValue reads path out of body. Paths use dots and brackets
// ("data.items[0].id"); a missing segment yields ok=false.
func ExtractValue(body any, path string) (any, bool) {
	return NewExtractor(&Response{Body: body}).extractFromBody(path)
}

// ParseSetCookie splits Set-Cookie values on ';' then '=' into name/value
// pairs. The first occurrence of a name wins.
func ParseSetCookie(values []string) map[string]string {
	cookies := make(map[string]string)
	for _, header := range values {
		for _, part := range strings.Split(header, ";") {
			name, value, found := strings.Cut(strings.TrimSpace(part), "=")
			name = strings.TrimSpace(name)
			if !found || name == "" {
				continue
			}
			if _, exists := cookies[name]; !exists {
				cookies[name] = strings.TrimSpace(value)
			}
		}
	}
	return cookies
}

func lookupHeader(headers map[string][]string, name string) []string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func parseBody(body any) gjson.Result {
	switch b := body.(type) {
	case nil:
		return gjson.Result{}
	case []byte:
		if gjson.ValidBytes(b) {
			return gjson.ParseBytes(b)
		}
		return gjson.Result{}
	case json.RawMessage:
		if gjson.ValidBytes(b) {
			return gjson.ParseBytes(b)
		}
		return gjson.Result{}
	case string:
		if gjson.Valid(b) {
			return gjson.Parse(b)
		}
		return gjson.Result{}
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return gjson.Result{}
		}
		return gjson.ParseBytes(data)
	}
}

// toGJSONPath turns "a.b[0].c" into the gjson path "a.b.0.c", escaping any
// gjson syntax characters inside segments
func toGJSONPath(path string) string {
	segments := strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})

	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = escapeSegment(seg)
	}
	return strings.Join(escaped, ".")
}

func escapeSegment(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		if !isPlainPathChar(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPlainPathChar(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '-' || r == ':' ||
		r > 0x7f
}
