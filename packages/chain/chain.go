package chain

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitflow/packages/capture"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
)

// Source aliases capture's source so plan files and callers share one type
type Source = capture.Source

const (
	SourceResponse = capture.SourceResponse
	SourceHeader   = capture.SourceHeader
	SourceCookie   = capture.SourceCookie
)

// Variable declares a value to extract from a request's response
type Variable struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`
}

type Request struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string            `json:"body,omitempty" yaml:"body,omitempty"`
	DependsOn string            `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Variables []Variable        `json:"variables,omitempty" yaml:"variables,omitempty"`
}

func (r *Request) label() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Name
}

// Response is what an execute function reports back for one request
type Response struct {
	StatusCode int                 `json:"statusCode"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       any                 `json:"body,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// ExecuteFunc sends one request. The request has already been substituted;
// vars is the pool as it stood before the request was sent.
type ExecuteFunc func(ctx context.Context, req *Request, vars env.Variables) (*Response, error)

// ProgressFunc is called after each request with the number completed so far
type ProgressFunc func(completed, total int, vars env.Variables)

type StepResult struct {
	Request   *Request       `json:"request"`
	Response  *Response      `json:"response"`
	Extracted map[string]any `json:"extracted,omitempty"`
}

type Result struct {
	Steps     []StepResult  `json:"steps"`
	Variables env.Variables `json:"variables"`
	Duration  time.Duration `json:"duration"`
}

type Resolver struct {
	initial env.Variables
	logger  *zap.Logger
}

type Option func(*Resolver)

// WithInitialVariables seeds the pool before the first request
func WithInitialVariables(vars env.Variables) Option {
	return func(r *Resolver) {
		r.initial = vars
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute sorts requests by dependency and runs them one at a time. A cycle
// is reported before anything is sent. When fn fails the chain stops and the
// steps completed so far are returned alongside the error.
func (r *Resolver) Execute(ctx context.Context, requests []*Request, fn ExecuteFunc, onProgress ProgressFunc) (*Result, error) {
	start := time.Now()

	sorted, err := TopologicalSort(requests)
	if err != nil {
		return nil, err
	}

	pool := env.NewPool()
	pool.SetAll(r.initial)
	pool.SetWarnFunc(func(format string, args ...any) {
		r.logger.Debug(fmt.Sprintf(format, args...))
	})

	result := &Result{Steps: make([]StepResult, 0, len(sorted))}
	finish := func() *Result {
		result.Variables = pool.Snapshot()
		result.Duration = time.Since(start)
		return result
	}

	for i, req := range sorted {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}

		resolved := substituteRequest(req, pool)
		r.logger.Debug("executing chain request",
			zap.String("id", req.ID),
			zap.String("method", resolved.Method),
			zap.String("url", resolved.URL))

		resp, err := fn(ctx, resolved, pool.Snapshot())
		if err != nil {
			return finish(), fmt.Errorf("request %s: %w", req.label(), err)
		}
		if resp == nil {
			resp = &Response{}
		}

		extracted := extract(resp, req.Variables)
		pool.SetAll(extracted)

		result.Steps = append(result.Steps, StepResult{
			Request:   resolved,
			Response:  resp,
			Extracted: extracted,
		})

		if onProgress != nil {
			onProgress(i+1, len(sorted), pool.Snapshot())
		}
	}

	return finish(), nil
}

func substituteRequest(req *Request, pool *env.Pool) *Request {
	out := *req
	out.URL = pool.Resolve(req.URL)
	out.Body = pool.Resolve(req.Body)
	out.Headers = pool.ResolveAll(req.Headers)
	return &out
}

func extract(resp *Response, rules []Variable) map[string]any {
	if len(rules) == 0 {
		return nil
	}

	captureRules := make([]capture.Rule, len(rules))
	for i, v := range rules {
		captureRules[i] = capture.Rule{Name: v.Name, Path: v.Path, Source: v.Source}
	}

	return capture.ExtractAll(&capture.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, captureRules)
}
