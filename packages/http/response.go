package http

import (
	"encoding/json"
	"mime"
	"strings"
	"time"
)

// Response is a fully read HTTP response. Header names keep the casing the
// server sent, so lookups go through HeaderValues.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string][]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// HeaderValues returns every value for key, matched case-insensitively
func (r *Response) HeaderValues(key string) []string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

// IsJSON reports whether the declared media type is JSON, including
// +json suffixes such as application/problem+json
func (r *Response) IsJSON() bool {
	values := r.HeaderValues("Content-Type")
	if len(values) == 0 {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(values[0])
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// IsSuccess reports a 2xx status
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
