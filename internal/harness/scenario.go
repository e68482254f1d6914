package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/appstore/internal/apperror"
)

// Scenario is a scripted sequence of operations with expectations.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Steps run in order against one fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after every step has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step dispatches one operation.
type Step struct {
	// Op is the operation name, e.g. "create_publisher".
	Op string `yaml:"op"`

	// As is the caller's agent id. Empty means anonymous.
	As string `yaml:"as,omitempty"`

	// At moves the logical clock before the step, so the revision it
	// writes is stamped At+1.
	At *int64 `yaml:"at,omitempty"`

	// Input is the operation input, after variable substitution.
	Input any `yaml:"input,omitempty"`

	// Expect describes the envelope. Nil means "must succeed".
	Expect *Expect `yaml:"expect,omitempty"`

	// Save maps variable names to dotted paths into the success payload,
	// e.g. {acme: id} or {first: "0.id"}.
	Save map[string]string `yaml:"save,omitempty"`
}

// Expect describes the envelope a step should produce.
type Expect struct {
	// Type is "success" (default) or "failure".
	Type string `yaml:"type,omitempty"`

	// Error is the expected failure kind, e.g. "Unauthorized".
	Error string `yaml:"error,omitempty"`

	// Composition is the expected success composition.
	Composition string `yaml:"composition,omitempty"`

	// Payload is matched as a subset: maps may carry extra keys, arrays
	// must match element-wise.
	Payload any `yaml:"payload,omitempty"`

	// Count is the expected length of a collection payload.
	Count *int `yaml:"count,omitempty"`
}

// Assertion is checked once all steps have run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op names the operation (trace_contains, trace_count, collection).
	Op string `yaml:"op,omitempty"`

	// Outcome narrows trace_contains to "success" or "failure".
	Outcome string `yaml:"outcome,omitempty"`

	// Ops is the expected order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of occurrences (trace_count) or
	// members (collection).
	Count *int `yaml:"count,omitempty"`

	// As and Input parameterize the collection query.
	As    string `yaml:"as,omitempty"`
	Input any    `yaml:"input,omitempty"`

	// Contains and Excludes list entity ids that must (not) be members.
	Contains []string `yaml:"contains,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertCollection    = "collection"
)

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected so typos do not silently disable an expectation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if step.Expect != nil {
			if err := validateExpect(step.Expect); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
			if step.Expect.Type == OutcomeFailure && len(step.Save) > 0 {
				return fmt.Errorf("steps[%d]: save needs a success payload", i)
			}
		}
		for name, path := range step.Save {
			if !validVarName.MatchString(name) {
				return fmt.Errorf("steps[%d].save: invalid variable name %q", i, name)
			}
			if path == "" {
				return fmt.Errorf("steps[%d].save.%s: path is required", i, name)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateExpect(e *Expect) error {
	switch e.Type {
	case "", OutcomeSuccess:
		if e.Error != "" {
			return fmt.Errorf("error is only valid with type failure")
		}
	case OutcomeFailure:
		if e.Error != "" && !knownKind(e.Error) {
			return fmt.Errorf("unknown error kind %q", e.Error)
		}
		if e.Composition != "" || e.Count != nil {
			return fmt.Errorf("composition and count are only valid on success")
		}
	default:
		return fmt.Errorf("type must be success or failure, got %q", e.Type)
	}
	if e.Count != nil && *e.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
		if a.Outcome != "" && a.Outcome != OutcomeSuccess && a.Outcome != OutcomeFailure {
			return fmt.Errorf("assertions[%d]: outcome must be success or failure", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: a non-negative count is required for trace_count", index)
		}
	case AssertCollection:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for collection", index)
		}
		if a.Count == nil && len(a.Contains) == 0 && len(a.Excludes) == 0 {
			return fmt.Errorf("assertions[%d]: collection needs count, contains or excludes", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func knownKind(k string) bool {
	switch apperror.Kind(k) {
	case apperror.NotFound, apperror.Unauthorized, apperror.ValidationError,
		apperror.StorageFailure, apperror.UserError, apperror.AppError:
		return true
	}
	return false
}
