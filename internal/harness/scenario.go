package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one request/response conformance case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Request is an inline YAML request document.
	Request yaml.Node `yaml:"request,omitempty"`

	// RequestFile is a .yaml or .cue request document, used when Request
	// is absent.
	RequestFile string `yaml:"request_file,omitempty"`

	// Response is the raw engine response body.
	Response string `yaml:"response,omitempty"`

	// ResponseFile holds the response body, used when Response is empty.
	ResponseFile string `yaml:"response_file,omitempty"`

	// Instances are stored before the request is built, by kind and key.
	Instances map[string]map[string]any `yaml:"instances,omitempty"`

	// RequestID is the fixed ID assigned to the fetch.
	// If empty, defaults to "test-request".
	RequestID string `yaml:"request_id,omitempty"`

	// Assertions validate the compiled parameters and bound facets.
	Assertions []Assertion `yaml:"assertions"`

	// dir resolves relative request and response files.
	dir string
}

// Assertion validates one aspect of a result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Param and Values are used by param.
	Param  string   `yaml:"param,omitempty"`
	Values []string `yaml:"values,omitempty"`

	// Facet is the facet key (facet_* assertions).
	Facet string `yaml:"facet,omitempty"`

	// Path lists the outer pivot values leading to Value (facet_value).
	Path []any `yaml:"path,omitempty"`

	// Value is the facet value (facet_value).
	Value any `yaml:"value,omitempty"`

	// Start is the bucket start (facet_range).
	Start any `yaml:"start,omitempty"`

	// Count is the expected count (hits, facet_len, facet_value,
	// facet_range, facet_query).
	Count *int `yaml:"count,omitempty"`

	// Instance is subset-matched against the resolved instance (facet_value).
	Instance map[string]any `yaml:"instance,omitempty"`
}

// Assertion type constants.
const (
	AssertParam      = "param"
	AssertHits       = "hits"
	AssertFacetLen   = "facet_len"
	AssertFacetValue = "facet_value"
	AssertFacetRange = "facet_range"
	AssertFacetQuery = "facet_query"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// ParseScenario parses a scenario held in memory. Relative files resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// resolve returns name relative to the scenario file.
func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) || s.dir == "" {
		return name
	}
	return filepath.Join(s.dir, name)
}

func (s *Scenario) hasInlineRequest() bool { return s.Request.Kind != 0 }

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.hasInlineRequest() == (s.RequestFile != "") {
		return fmt.Errorf("exactly one of request and request_file is required")
	}

	if (s.Response == "") == (s.ResponseFile == "") {
		return fmt.Errorf("exactly one of response and response_file is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertParam:
		if a.Param == "" {
			return fmt.Errorf("assertions[%d]: param is required for param", index)
		}
		return nil
	case AssertHits:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for hits", index)
		}
		return nil
	case AssertFacetLen, AssertFacetValue, AssertFacetRange, AssertFacetQuery:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Facet == "" {
		return fmt.Errorf("assertions[%d]: facet is required for %s", index, a.Type)
	}
	switch a.Type {
	case AssertFacetValue:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for facet_value", index)
		}
		if a.Count == nil && a.Instance == nil {
			return fmt.Errorf("assertions[%d]: count or instance is required for facet_value", index)
		}
	case AssertFacetRange:
		if a.Start == nil || a.Count == nil {
			return fmt.Errorf("assertions[%d]: start and count are required for facet_range", index)
		}
	default:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
	}
	return nil
}
