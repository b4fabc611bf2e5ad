package harness

import (
	"net/url"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// RequestID is the ID the searcher assigned to the fetch.
	RequestID string `json:"request_id"`

	// Params are the compiled request parameters.
	Params url.Values `json:"params"`

	// Hits is the reported number of matches.
	Hits int `json:"hits"`

	// Facets are the bound facets with resolved instances, in request order.
	Facets []*FacetSnapshot `json:"facets"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result for the named scenario.
func NewResult(scenario string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Params:   url.Values{},
		Facets:   []*FacetSnapshot{},
		Errors:   []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Facet returns the snapshot with the given key, or nil.
func (r *Result) Facet(key string) *FacetSnapshot {
	for _, f := range r.Facets {
		if f.Key == key {
			return f
		}
	}
	return nil
}
