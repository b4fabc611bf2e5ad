package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/solq/internal/criteria"
	"github.com/roach88/solq/internal/facet"
	"github.com/roach88/solq/internal/harness"
	"github.com/roach88/solq/internal/search"
	"github.com/roach88/solq/internal/store"
)

// BindOptions holds flags for the bind command.
type BindOptions struct {
	*RootOptions
	DB string // instance store for facet mappers
}

// BindResult is the JSON payload of the bind command.
type BindResult struct {
	Hits   int                      `json:"hits"`
	Facets []*harness.FacetSnapshot `json:"facets"`
}

// NewBindCommand creates the bind command.
func NewBindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bind <request> <response.json>",
		Short: "Bind a saved response to a request's facets",
		Long: `Bind the facet counts of a saved JSON response to the facets of a
request document, converting values to their declared types.

With --db, facets naming a mapper resolve their values to the instances
stored under that kind.

Examples:
  solq bind request.yaml response.json
  solq bind request.yaml response.json --db instances.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBind(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to instance store database")

	return cmd
}

func runBind(opts *BindOptions, requestPath, responsePath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := &criteria.Loader{}
	if opts.DB != "" {
		if _, err := os.Stat(opts.DB); err != nil {
			return formatter.fail(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.DB), nil)
		}
		st, err := store.Open(opts.DB)
		if err != nil {
			return formatter.fail(ErrCodeStoreFailed, err.Error(), nil)
		}
		defer st.Close()
		loader = criteria.NewLoader(st)
		formatter.VerboseLog("Resolving instances from %s", opts.DB)
	}

	req, err := loader.LoadFile(requestPath)
	if err != nil {
		return failLoad(formatter, err)
	}

	body, err := os.ReadFile(responsePath)
	if err != nil {
		return formatter.fail(ErrCodeBadResponse, fmt.Sprintf("reading response: %v", err), nil)
	}
	resp, err := search.ParseResponse(body)
	if err != nil {
		return formatter.fail(ErrCodeBadResponse, err.Error(), nil)
	}
	formatter.VerboseLog("Binding %d facet(s) against %s", len(req.Facets), responsePath)

	facets, err := harness.SnapshotFacets(ctx, facet.Bind(req.Facets, resp.Facets))
	if err != nil {
		return formatter.fail(ErrCodeResolveFailed, err.Error(), nil)
	}

	result := BindResult{Hits: resp.NumFound, Facets: facets}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%d hit(s)\n\n", result.Hits)
	writeFacetTree(formatter.Writer, facets)
	return nil
}

// writeFacetTree prints facets as an indented tree:
//
//	category (field)
//	  1: 30 {"name":"Phones"}
//	price (range, gap 30)
//	  [0, 30): 1370
func writeFacetTree(w io.Writer, facets []*harness.FacetSnapshot) {
	for _, f := range facets {
		switch f.Kind {
		case facet.KindQuery:
			if f.Count == nil {
				fmt.Fprintf(w, "%s (query): not reported\n", f.Key)
			} else {
				fmt.Fprintf(w, "%s (query): %d\n", f.Key, *f.Count)
			}
		case facet.KindRange:
			fmt.Fprintf(w, "%s (range, gap %s)\n", f.Key, f.Gap)
			for _, r := range f.Ranges {
				fmt.Fprintf(w, "  [%s, %s): %d\n", display(r.Start), display(r.End), r.Count)
			}
		default:
			fmt.Fprintf(w, "%s (%s)\n", f.Key, f.Kind)
			writeValues(w, f.Values, 1)
		}
	}
}

func writeValues(w io.Writer, values []harness.ValueSnapshot, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, v := range values {
		fmt.Fprintf(w, "%s%s: %d", indent, display(v.Value), v.Count)
		if v.Instance != nil {
			if data, err := json.Marshal(v.Instance); err == nil {
				fmt.Fprintf(w, " %s", data)
			}
		}
		fmt.Fprintln(w)
		if v.Pivot != nil {
			writeValues(w, v.Pivot.Values, depth+1)
		}
	}
}

// display renders a bound value the way it appears on the wire.
func display(v any) string {
	if v == nil {
		return "*"
	}
	s, err := facet.ParamString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
