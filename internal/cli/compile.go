package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/solq/internal/criteria"
	"github.com/roach88/solq/internal/search"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path for the encoded query string
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request>",
		Short: "Compile a request document to select parameters",
		Long: `Compile a YAML or CUE request document to the parameters of a select
request: q, fq, sort, paging, field lists and facet parameters.

Examples:
  solq compile request.yaml
  solq compile request.cue --format json
  solq compile request.yaml -o request.query`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the encoded query string to this file")

	return cmd
}

func runCompile(opts *CompileOptions, requestPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	req, err := criteria.LoadFile(requestPath)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Loaded %s: %d filter(s), %d facet(s)", requestPath, len(req.Filters), len(req.Facets))

	params, err := req.Apply(search.NewQuery()).Params()
	if err != nil {
		return formatter.fail(ErrCodeCompileFailed, err.Error(), nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(params.Encode()+"\n"), 0644); err != nil {
			return formatter.fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, params, opts.Output)
}

// outputCompileSuccess prints one name=value line per parameter value,
// sorted by name.
func outputCompileSuccess(formatter *OutputFormatter, params url.Values, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(params)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d parameter(s)\n\n", len(names))
	for _, name := range names {
		for _, v := range params[name] {
			fmt.Fprintf(formatter.Writer, "%s=%s\n", name, v)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote query string to %s\n", outputFile)
	}
	return nil
}

// failLoad reports a request document error with its code and location.
func failLoad(formatter *OutputFormatter, err error) error {
	var le *criteria.LoadError
	if !errors.As(err, &le) {
		return formatter.fail(ErrCodeGeneric, err.Error(), nil)
	}

	details := map[string]any{}
	message := le.Message
	if le.Path != "" {
		details["path"] = le.Path
		message = le.Path + ": " + message
	}
	if le.Pos.IsValid() {
		details["file"] = le.Pos.Filename()
		details["line"] = le.Pos.Line()
		details["column"] = le.Pos.Column()
		message = fmt.Sprintf("%s:%d:%d %s", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column(), message)
	}
	if len(details) == 0 {
		return formatter.fail(le.Code, message, nil)
	}
	return formatter.fail(le.Code, message, details)
}
