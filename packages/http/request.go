package http

import "time"

// Request is one outgoing call. Headers set here override the client's
// default headers; a zero Timeout leaves only the client's own.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

// SetTimeout bounds this request on top of the caller's context
func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}
