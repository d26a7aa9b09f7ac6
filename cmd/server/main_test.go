package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "filesystem-mcp dev\n", out)
}

func TestToolsCatalogue(t *testing.T) {
	out, err := run(t, "tools", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "filesystem  Filesystem Service (15 tools)")
	assert.Contains(t, out, "filesystem.delete_file_or_directory [destructive]")
	assert.Contains(t, out, "filesystem.read_file_contents [read-only]")
	assert.Contains(t, out, "params: sourcePath*: string, destinationPath*: string, overwrite: boolean")
	assert.Contains(t, out, "system.get_logs")
}

func TestToolsJSON(t *testing.T) {
	out, err := run(t, "tools", "--json")
	require.NoError(t, err)

	var services []types.Service
	require.NoError(t, json.Unmarshal([]byte(out), &services))
	require.Len(t, services, 2)
	assert.Equal(t, "filesystem", services[0].ID)
	assert.Equal(t, "system", services[1].ID)
}

func TestCallValidatesArguments(t *testing.T) {
	_, err := run(t, "call")
	assert.Error(t, err)

	_, err = run(t, "call", "filesystem.read_file_contents", "not-json")
	assert.ErrorContains(t, err, "params must be a JSON object")
}

func TestFormatParams(t *testing.T) {
	got := formatParams([]types.Parameter{
		{Name: "path", Type: "string", Required: true},
		{Name: "limit", Type: "number"},
	})
	assert.Equal(t, "path*: string, limit: number", got)
}
