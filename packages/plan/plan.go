package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/hitflow/packages/action"
	"github.com/abdul-hamid-achik/hitflow/packages/bulk"
	"github.com/abdul-hamid-achik/hitflow/packages/chain"
	"github.com/abdul-hamid-achik/hitflow/packages/core/env"
)

type Kind string

const (
	KindActions Kind = "actions"
	KindChain   Kind = "chain"
	KindBulk    Kind = "bulk"
)

func (k Kind) Valid() bool {
	switch k {
	case KindActions, KindChain, KindBulk:
		return true
	}
	return false
}

// Document is a loaded plan of any kind. Exactly one of Actions, Chain or
// Bulk is set, matching Kind.
type Document struct {
	Path    string
	Kind    Kind
	Name    string
	Actions *ActionPlan
	Chain   *ChainPlan
	Bulk    *BulkPlan
}

// ActionDefaults fills retry settings on actions that leave them out. A nil
// field leaves the actions untouched.
type ActionDefaults struct {
	RetryCount   *int `json:"retryCount,omitempty"`
	RetryDelayMs *int `json:"retryDelayMs,omitempty"`
}

type ActionPlan struct {
	Name     string           `json:"name,omitempty"`
	DeviceID string           `json:"deviceId,omitempty"`
	Defaults ActionDefaults   `json:"defaults,omitempty"`
	Actions  []*action.Action `json:"actions"`

	// set records which retry fields each action carries, by index
	set []retryFields
}

type retryFields struct {
	count bool
	delay bool
}

// ApplyDefaults fills retry settings on actions that leave them unset. An
// explicit value in the file, zero included, is kept. Filled fields count as
// set, so later calls only reach fields no earlier layer provided.
func (p *ActionPlan) ApplyDefaults(d ActionDefaults) {
	if len(p.set) < len(p.Actions) {
		p.set = append(p.set, make([]retryFields, len(p.Actions)-len(p.set))...)
	}
	for i, a := range p.Actions {
		if !p.set[i].count && d.RetryCount != nil {
			a.RetryCount = *d.RetryCount
			p.set[i].count = true
		}
		if !p.set[i].delay && d.RetryDelayMs != nil {
			a.RetryDelayMs = *d.RetryDelayMs
			p.set[i].delay = true
		}
	}
}

// markRetryFields notes which actions spell out their retry settings
func (p *ActionPlan) markRetryFields(raw map[string]any) {
	items, _ := raw["actions"].([]any)
	p.set = make([]retryFields, len(p.Actions))
	for i := range p.set {
		if i >= len(items) {
			break
		}
		m, ok := items[i].(map[string]any)
		if !ok {
			continue
		}
		_, p.set[i].count = m["retryCount"]
		_, p.set[i].delay = m["retryDelayMs"]
	}
}

type ChainPlan struct {
	Name      string           `json:"name,omitempty"`
	Variables env.Variables    `json:"variables,omitempty"`
	Requests  []*chain.Request `json:"requests"`
}

// BulkOptions is the file form of bulk.Options; Delay is in milliseconds
type BulkOptions struct {
	Parallel      bool `json:"parallel,omitempty"`
	MaxConcurrent int  `json:"maxConcurrent,omitempty"`
	StopOnError   bool `json:"stopOnError,omitempty"`
	Delay         int  `json:"delay,omitempty"`
}

func (o BulkOptions) ToOptions() bulk.Options {
	return bulk.Options{
		Parallel:      o.Parallel,
		MaxConcurrent: o.MaxConcurrent,
		StopOnError:   o.StopOnError,
		Delay:         time.Duration(o.Delay) * time.Millisecond,
	}
}

// BulkThresholds is the file form of bulk.Thresholds; latencies are in milliseconds
type BulkThresholds struct {
	MinSuccessRate float64 `json:"minSuccessRate,omitempty"`
	P95            int     `json:"p95,omitempty"`
	P99            int     `json:"p99,omitempty"`
}

func (t BulkThresholds) ToThresholds() bulk.Thresholds {
	return bulk.Thresholds{
		MinSuccessRate: t.MinSuccessRate,
		P95:            time.Duration(t.P95) * time.Millisecond,
		P99:            time.Duration(t.P99) * time.Millisecond,
	}
}

type BulkPlan struct {
	Name       string         `json:"name,omitempty"`
	Options    *BulkOptions   `json:"options,omitempty"`
	Thresholds BulkThresholds `json:"thresholds,omitempty"`
	Tests      []*bulk.Test   `json:"tests"`
}

// LoadFile reads and validates a plan file. Files ending in .json are read
// as JSON, everything else as YAML.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}

	doc, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes and validates a plan. YAML is a superset of JSON, so isJSON
// only selects the stricter decoder.
func Parse(data []byte, isJSON bool) (*Document, error) {
	var raw map[string]any
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("plan is empty")
	}

	kind, err := detectKind(raw)
	if err != nil {
		return nil, err
	}

	normalizeBodies(raw)

	document, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting plan: %w", err)
	}
	if err := validate(kind, document); err != nil {
		return nil, err
	}

	doc := &Document{Kind: kind}
	switch kind {
	case KindActions:
		doc.Actions = &ActionPlan{}
		err = json.Unmarshal(document, doc.Actions)
		if err == nil {
			doc.Actions.markRetryFields(raw)
			doc.Actions.ApplyDefaults(doc.Actions.Defaults)
			doc.Name = doc.Actions.Name
		}
	case KindChain:
		doc.Chain = &ChainPlan{}
		err = json.Unmarshal(document, doc.Chain)
		doc.Name = doc.Chain.Name
	case KindBulk:
		doc.Bulk = &BulkPlan{}
		err = json.Unmarshal(document, doc.Bulk)
		if err == nil {
			assignTestIDs(doc.Bulk.Tests)
			doc.Name = doc.Bulk.Name
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s plan: %w", kind, err)
	}

	return doc, nil
}

func detectKind(raw map[string]any) (Kind, error) {
	if k, ok := raw["kind"]; ok {
		s, _ := k.(string)
		kind := Kind(s)
		if !kind.Valid() {
			return "", fmt.Errorf("unknown plan kind %q", s)
		}
		return kind, nil
	}

	switch {
	case raw["actions"] != nil:
		return KindActions, nil
	case raw["requests"] != nil:
		return KindChain, nil
	case raw["tests"] != nil:
		return KindBulk, nil
	}
	return "", fmt.Errorf("cannot tell plan kind: expected one of actions, requests or tests")
}

// normalizeBodies turns structured request bodies into JSON text so they can
// be templated like string bodies
func normalizeBodies(raw map[string]any) {
	for _, key := range []string{"requests", "tests"} {
		items, ok := raw[key].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			switch body := m["body"].(type) {
			case map[string]any, []any:
				if data, err := json.Marshal(body); err == nil {
					m["body"] = string(data)
				}
			}
		}
	}
}

func assignTestIDs(tests []*bulk.Test) {
	for i, t := range tests {
		if t.ID == "" {
			t.ID = fmt.Sprintf("test-%d", i+1)
		}
	}
}
