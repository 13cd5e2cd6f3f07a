package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/http"
)

// Operation names the backend endpoint for one action kind
type Operation string

const (
	OpTypeText      Operation = "type"
	OpWaitVisible   Operation = "wait-visible"
	OpWaitClickable Operation = "wait-clickable"
	OpAssertVisible Operation = "assert-visible"
	OpAssertText    Operation = "assert-text"
	OpTap           Operation = "tap"
	OpSwipe         Operation = "swipe"
)

// Request is the body sent to an action operation
type Request struct {
	DeviceID   string         `json:"deviceId"`
	Element    action.Element `json:"element,omitempty"`
	Text       string         `json:"text,omitempty"`
	X          *int           `json:"x,omitempty"`
	Y          *int           `json:"y,omitempty"`
	EndX       *int           `json:"endX,omitempty"`
	EndY       *int           `json:"endY,omitempty"`
	DurationMs int            `json:"duration,omitempty"`
	TimeoutMs  int            `json:"timeout,omitempty"`
	Expected   string         `json:"expected,omitempty"`
}

// Response is the backend's answer. Success reports transport/driver
// success; Result carries the wait or assert condition outcome.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Result  *bool  `json:"result,omitempty"`
	Text    string `json:"text,omitempty"`
}

// ConditionMet reports the wait/assert outcome. A missing result counts as met
// when the call itself succeeded.
func (r *Response) ConditionMet() bool {
	if r.Result == nil {
		return r.Success
	}
	return *r.Result
}

type screenshotResponse struct {
	Screenshot string `json:"screenshot"`
	Error      string `json:"error,omitempty"`
}

// Client is an HTTP implementation of the backend API
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(b *Client) {
		b.http = c
	}
}

// WithRequestTimeout bounds every backend call, on top of any wait timeout
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(b *Client) {
		b.timeout = d
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = http.NewClient()
	}
	return c
}

// Invoke posts req to the given operation and decodes the response. A non-2xx
// status with a decodable body is returned as a normal Response so the caller
// sees the backend's error message.
func (c *Client) Invoke(ctx context.Context, op Operation, req *Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op, err)
	}

	httpReq := http.NewRequest("POST", c.baseURL+"/actions/"+string(op)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(string(payload))
	c.applyTimeout(httpReq, req.TimeoutMs)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", op, err)
	}

	var out Response
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("calling %s: HTTP %d", op, resp.StatusCode)
		}
		return nil, fmt.Errorf("decoding %s response: %w", op, err)
	}
	if !resp.IsSuccess() && out.Success {
		out.Success = false
		if out.Error == "" {
			out.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
	}

	return &out, nil
}

// Screenshot fetches a diagnostic capture for deviceID
func (c *Client) Screenshot(ctx context.Context, deviceID string) (string, error) {
	httpReq := http.NewRequest("GET", c.baseURL+"/devices/"+url.PathEscape(deviceID)+"/screenshot").
		SetHeader("Accept", "application/json")
	c.applyTimeout(httpReq, 0)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return "", fmt.Errorf("fetching screenshot: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetching screenshot: HTTP %d", resp.StatusCode)
	}

	var out screenshotResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("decoding screenshot: %w", err)
	}
	if out.Screenshot == "" {
		if out.Error != "" {
			return "", fmt.Errorf("fetching screenshot: %s", out.Error)
		}
		return "", fmt.Errorf("fetching screenshot: empty payload")
	}
	return out.Screenshot, nil
}

// applyTimeout lets a long wait run past the client's default timeout
func (c *Client) applyTimeout(req *http.Request, waitMs int) {
	timeout := c.timeout
	if waitMs > 0 {
		wait := time.Duration(waitMs)*time.Millisecond + 5*time.Second
		if wait > timeout {
			timeout = wait
		}
	}
	if timeout > 0 {
		req.SetTimeout(timeout)
	}
}
