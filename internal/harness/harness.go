package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/solq/internal/criteria"
	"github.com/roach88/solq/internal/search"
	"github.com/roach88/solq/internal/store"
	"github.com/roach88/solq/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory store for isolation.
//
// Execution flow:
// 1. Store the instance fixtures
// 2. Build the request with the store's mappers
// 3. Fetch it through a static transport serving the scenario response
// 4. Snapshot the bound facets, resolving instances
// 5. Evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	kinds := make([]string, 0, len(scenario.Instances))
	for kind := range scenario.Instances {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if err := st.PutAll(ctx, kind, scenario.Instances[kind]); err != nil {
			return nil, fmt.Errorf("failed to store %s instances: %w", kind, err)
		}
	}

	req, err := loadRequest(scenario, criteria.NewLoader(st))
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	body, err := loadResponse(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load response: %w", err)
	}

	searcher := search.New(testutil.NewStaticTransport(body),
		search.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.RequestID)),
		search.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)
	res, err := req.Apply(searcher.Query()).Results(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}

	result := NewResult(scenario.Name)
	result.RequestID = res.RequestID
	result.Params = res.Params
	result.Hits = res.Hits
	if result.Facets, err = SnapshotFacets(ctx, res.Facets()); err != nil {
		return nil, fmt.Errorf("failed to resolve facets: %w", err)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadRequest(s *Scenario, loader *criteria.Loader) (*criteria.Request, error) {
	if s.RequestFile != "" {
		return loader.LoadFile(s.resolve(s.RequestFile))
	}
	data, err := yaml.Marshal(&s.Request)
	if err != nil {
		return nil, err
	}
	return loader.Parse(data, criteria.FormatYAML, s.Name+".request.yaml")
}

func loadResponse(s *Scenario) (string, error) {
	if s.Response != "" {
		return s.Response, nil
	}
	data, err := os.ReadFile(s.resolve(s.ResponseFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
