package cli

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Scenario describes a store, the events that change it and the order they are emitted in.
type Scenario struct {
	Name string `yaml:"name"`

	// State is the initial state of the store, a mapping or a sequence.
	State any `yaml:"state"`

	// Events maps an event name to the writes its handler queues.
	Events map[string][]Op `yaml:"events"`

	Dispatch []Step `yaml:"dispatch"`
}

// Op is one write queued by an event handler.
type Op struct {
	Op   string `yaml:"op"`
	Path string `yaml:"path"`

	// Value is written as is unless From is "payload", then the event payload is used.
	Value any    `yaml:"value,omitempty"`
	From  string `yaml:"from,omitempty"`
}

// Step emits one event.
type Step struct {
	Event   string `yaml:"event"`
	Payload any    `yaml:"payload,omitempty"`
}

const (
	OpSet    = "set"
	OpAdd    = "add"
	OpAppend = "append"
	OpDelete = "delete"
)

var validOps = []string{OpSet, OpAdd, OpAppend, OpDelete}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &s, nil
}

// Validate reports every problem of the scenario at once.
func (s *Scenario) Validate() error {
	var err error

	if s.Name == "" {
		err = multierr.Append(err, fmt.Errorf("name is required"))
	}

	switch s.State.(type) {
	case nil, map[string]any, []any:
	default:
		err = multierr.Append(err, fmt.Errorf("state must be a mapping or a sequence, got %T", s.State))
	}

	if len(s.Dispatch) == 0 {
		err = multierr.Append(err, fmt.Errorf("dispatch list is required and must be non-empty"))
	}

	for _, name := range s.EventNames() {
		for i, op := range s.Events[name] {
			err = multierr.Append(err, op.validate(fmt.Sprintf("events.%s[%d]", name, i)))
		}
	}

	for i, step := range s.Dispatch {
		if _, ok := s.Events[step.Event]; !ok {
			err = multierr.Append(err, fmt.Errorf("dispatch[%d]: unknown event %q", i, step.Event))
		}
	}

	return err
}

// EventNames returns the event names in a stable order.
func (s *Scenario) EventNames() []string {
	names := make([]string, 0, len(s.Events))
	for name := range s.Events {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (o Op) validate(at string) error {
	var err error

	if !slices.Contains(validOps, o.Op) {
		err = multierr.Append(err, fmt.Errorf("%s: invalid op %q: must be one of %v", at, o.Op, validOps))
	}
	if o.Path == "" {
		err = multierr.Append(err, fmt.Errorf("%s: path is required", at))
	}
	if o.From != "" && o.From != "payload" {
		err = multierr.Append(err, fmt.Errorf("%s: invalid from %q: only \"payload\" is supported", at, o.From))
	}
	if o.Op == OpAdd && o.From == "" {
		if _, ok := number(o.Value); !ok {
			err = multierr.Append(err, fmt.Errorf("%s: add needs a numeric value, got %T", at, o.Value))
		}
	}

	return err
}

func (o Op) value(payload any) any {
	if o.From == "payload" {
		return payload
	}

	return o.Value
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}

	return 0, false
}
