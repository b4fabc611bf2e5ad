package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phonesRequest = `
q: {name: phone}
filters:
  - where: {category__in: [1, 2]}
    tag: category
facets:
  - {field: category, type: int, ex: category, mapper: category}
  - {range: price, type: float, start: 0, end: 100, gap: 50}
sort: -price
rows: 5
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCompileRequest(t *testing.T) {
	request := writeFile(t, t.TempDir(), "phones.yaml", phonesRequest)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Compiled")
	assert.Contains(t, output, "q=name:phone\n")
	assert.Contains(t, output, "fq={!tag=category}(category:1 OR category:2)\n")
	assert.Contains(t, output, "facet.field={!ex=category}category\n")
	assert.Contains(t, output, "f.price.facet.range.gap=50\n")
	assert.Contains(t, output, "sort=price desc\n")
	assert.Contains(t, output, "rows=5\n")
}

func TestCompileRequestJSON(t *testing.T) {
	request := writeFile(t, t.TempDir(), "phones.yaml", phonesRequest)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string              `json:"status"`
		Data   map[string][]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"name:phone"}, resp.Data["q"])
	assert.Equal(t, []string{"{!ex=category}category"}, resp.Data["facet.field"])
}

func TestCompileOutputToFile(t *testing.T) {
	dir := t.TempDir()
	request := writeFile(t, dir, "phones.yaml", "q: {name: phone}\nrows: 1\n")
	outputFile := filepath.Join(dir, "phones.query")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request, "--output", outputFile})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote query string to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, "fl=%2A%2Cscore&q=name%3Aphone&rows=1\n", string(data))
}

func TestCompileInvalidRequest(t *testing.T) {
	request := writeFile(t, t.TempDir(), "bad.yaml", "q: {price__between: 5}\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E205]")
	assert.Contains(t, buf.String(), "q.price__between")
}

func TestCompileCUEErrorPosition(t *testing.T) {
	request := writeFile(t, t.TempDir(), "bad.cue", "facets: [\n\t{field: \"brand\", type: \"uuid\"},\n]\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request})

	err := cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E206", resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "facets[0].type", details["path"])
	assert.Equal(t, float64(2), details["line"])
}

func TestCompileUnknownExtension(t *testing.T) {
	request := writeFile(t, t.TempDir(), "request.json", "{}")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{request})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Error [E203]")
}

func TestCompileMissingArgs(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestCompileVerboseGoesToStderr(t *testing.T) {
	request := writeFile(t, t.TempDir(), "phones.yaml", phonesRequest)

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json", Verbose: true}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{request})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "1 filter(s), 2 facet(s)")
	assert.True(t, json.Valid(buf.Bytes()))
}
