package criteria

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the decoded form of a request document. Criteria fields hold
// raw values and are turned into predicate trees by Build.
type Document struct {
	Q       any            `yaml:"q" json:"q"`
	QParams map[string]any `yaml:"q_params" json:"q_params"`
	Filters []FilterDoc    `yaml:"filters" json:"filters"`
	Facets  []FacetDoc     `yaml:"facets" json:"facets"`
	Sort    StringList     `yaml:"sort" json:"sort"`
	Rows    *int           `yaml:"rows" json:"rows"`
	Start   int            `yaml:"start" json:"start"`
	Fields  StringList     `yaml:"fields" json:"fields"`
	DefType string         `yaml:"def_type" json:"def_type"`
	Qf      StringList     `yaml:"qf" json:"qf"`
	Params  map[string]any `yaml:"params" json:"params"`
}

// FilterDoc is one fq entry. Exactly one of Where and Exclude is set.
type FilterDoc struct {
	Where   any            `yaml:"where" json:"where"`
	Exclude any            `yaml:"exclude" json:"exclude"`
	Tag     StringList     `yaml:"tag" json:"tag"`
	Params  map[string]any `yaml:"params" json:"params"`
}

// FacetDoc is one facet entry. Exactly one of Field, Range, Query and
// Pivot is set.
type FacetDoc struct {
	Field string       `yaml:"field" json:"field"`
	Range string       `yaml:"range" json:"range"`
	Query any          `yaml:"query" json:"query"`
	Pivot []PivotLevel `yaml:"pivot" json:"pivot"`

	Type    string         `yaml:"type" json:"type"`
	Key     string         `yaml:"key" json:"key"`
	Ex      StringList     `yaml:"ex" json:"ex"`
	Params  map[string]any `yaml:"params" json:"params"`
	Mapper  string         `yaml:"mapper" json:"mapper"`
	Options map[string]any `yaml:"options" json:"options"`

	Start any `yaml:"start" json:"start"`
	End   any `yaml:"end" json:"end"`
	Gap   any `yaml:"gap" json:"gap"`
}

// PivotLevel is one pivot field, written as a bare field name or a map.
type PivotLevel struct {
	Field   string         `yaml:"field" json:"field"`
	Type    string         `yaml:"type" json:"type"`
	Mapper  string         `yaml:"mapper" json:"mapper"`
	Options map[string]any `yaml:"options" json:"options"`
}

type pivotLevelFields PivotLevel

func (l *PivotLevel) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return n.Decode(&l.Field)
	}
	var f pivotLevelFields
	if err := n.Decode(&f); err != nil {
		return err
	}
	*l = PivotLevel(f)
	return nil
}

func (l *PivotLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		l.Field = s
		return nil
	}
	var f pivotLevelFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = PivotLevel(f)
	return nil
}

// StringList accepts a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var v string
		if err := n.Decode(&v); err != nil {
			return err
		}
		*s = StringList{v}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := n.Decode(&v); err != nil {
			return err
		}
		*s = v
		return nil
	}
	return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
}

func (s *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings")
	}
	*s = many
	return nil
}
