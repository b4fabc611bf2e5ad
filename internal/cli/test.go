package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/solq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run request scenarios",
		Long: `Run request scenarios: each compiles a request document, binds a canned
response and checks assertions on the parameters and facets.

A scenario with a golden file at golden/<file>.golden next to it must also
reproduce that snapshot.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  solq test ./scenarios
  solq test ./scenarios --filter "phones-*"
  solq test ./scenarios --update
  solq test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	if len(files) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	summary := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		r := runScenario(ctx, file, opts)
		summary.Scenarios = append(summary.Scenarios, r)
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
		if formatter.Format != "json" {
			printScenarioResult(formatter.Writer, r)
		}
	}

	return reportTests(formatter, summary)
}

// findScenarioFiles returns the YAML files under dir whose base name
// matches filter. Golden directories are not descended into.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario runs one scenario file and checks, or with --update
// rewrites, its golden snapshot.
func runScenario(ctx context.Context, file string, opts *TestOptions) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	broken := func(format string, err error) ScenarioResult {
		return ScenarioResult{Name: name, Errors: []string{fmt.Sprintf(format, err)}}
	}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return broken("failed to load scenario: %v", err)
	}
	name = scenario.Name

	result, err := harness.Run(ctx, scenario)
	if err != nil {
		return broken("execution failed: %v", err)
	}
	snapshot, err := result.Golden()
	if err != nil {
		return broken("%v", err)
	}

	path := goldenFilePath(file)
	switch golden, err := os.ReadFile(path); {
	case opts.Update:
		if err := writeGoldenFile(path, snapshot); err != nil {
			return broken("failed to update golden file: %v", err)
		}
	case err == nil && !bytes.Equal(golden, snapshot):
		result.AddError("snapshot does not match golden file (run with --update to regenerate)")
	case err != nil && !os.IsNotExist(err):
		result.AddError(fmt.Sprintf("failed to read golden file: %v", err))
	}

	return ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Errors}
}

func printScenarioResult(w io.Writer, r ScenarioResult) {
	if r.Pass {
		fmt.Fprintf(w, "✓ %s\n", r.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
	}
}

// goldenFilePath maps scenarios/x.yaml to scenarios/golden/x.golden.
func goldenFilePath(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return filepath.Join(filepath.Dir(file), "golden", base+".golden")
}

func writeGoldenFile(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	return os.WriteFile(path, snapshot, 0o644)
}

// reportTests writes the summary and turns failures into exit code 1.
func reportTests(f *OutputFormatter, summary TestResult) error {
	var failed error
	if summary.Failed > 0 {
		failed = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", summary.Failed))
	}

	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary}
		if failed != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScenarioFailed, Message: failed.Error()}
		}
		if err := f.encode(resp); err != nil {
			return WrapExitError(ExitCommandError, "failed to write result", err)
		}
		return failed
	}

	fmt.Fprintf(f.Writer, "\n%d passed, %d failed, %d total\n", summary.Passed, summary.Failed, summary.Total)
	if failed == nil {
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
	return failed
}
