package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolID(t *testing.T) {
	assert.NoError(t, ValidateToolID("filesystem.read_file_contents", "tool_id", true))
	assert.ErrorContains(t, ValidateToolID("", "tool_id", true), "tool_id is required")
	assert.NoError(t, ValidateToolID("", "tool_id", false))
	assert.ErrorContains(t, ValidateToolID("filesystem/read", "tool_id", true), "invalid characters")
	assert.ErrorContains(t, ValidateToolID(strings.Repeat("a", MaxIDLength+1), "tool_id", true), "must not exceed")
	assert.ErrorContains(t, ValidateToolID("a\x00b", "tool_id", true), "invalid characters")
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("filesystem", "id", true))
	assert.Error(t, ValidateID("file.system", "id", true))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("filesystem", false))
	assert.NoError(t, ValidateCategory("", false))
	assert.Error(t, ValidateCategory("FileSystem", false))
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("copy a file"))
	assert.Error(t, ValidateMessage(""))
	assert.ErrorContains(t, ValidateMessage("a          "), "whitespace")
}

func TestValidateParams(t *testing.T) {
	assert.NoError(t, ValidateParams(nil))
	assert.NoError(t, ValidateParams(map[string]any{"path": "/tmp", "overwrite": true}))

	var nested any = "leaf"
	for range MaxParamsDepth + 2 {
		nested = map[string]any{"n": nested}
	}
	assert.ErrorContains(t, ValidateParams(map[string]any{"deep": nested}), "nesting depth")

	wide := map[string]any{}
	for i := range MaxParamsFields + 1 {
		wide[strings.Repeat("k", i+1)] = i
	}
	assert.ErrorContains(t, ValidateParams(wide), "too many parameters")
}
