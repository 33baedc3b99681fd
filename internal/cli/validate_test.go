package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/objkernel/internal/registry"
)

const validDecls = `package app

class: StorageException: extends: "RuntimeException"

interface: Sized: {
	extends: ["Countable"]
}

class: Bag: {
	implements: ["Sized"]
	method: count: returns: "int"
}
`

const invalidDecls = `package app

class: Broken: implements: ["Countable"]

class: Orphan: extends: "NoSuchParent"
`

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", validDecls)

	out, _, err := executeCommand(t, "validate", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ All declarations valid (1 interfaces, 2 classes)\n", out)
}

func TestValidate_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", validDecls)

	out, _, err := executeCommand(t, "validate", dir, "--format", "json")
	require.NoError(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.Classes)
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", invalidDecls)

	out, _, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, registry.ErrMissingMethod)
	assert.Contains(t, out, registry.ErrUnknownParent)
}

func TestValidate_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", invalidDecls)

	out, _, err := executeCommand(t, "validate", dir, "--format", "json")
	require.Error(t, err)

	var result ValidationResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)
	require.NotNil(t, resp.Error)
	assert.Equal(t, result.Errors[0].Code, resp.Error.Code)
}

func TestValidate_Redeclared(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", "package app\n\nclass: Exception: {}\n")

	out, _, err := executeCommand(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, registry.ErrCodeRedeclared)
}

func TestValidate_CommandErrors(t *testing.T) {
	empty := t.TempDir()
	writeFile(t, empty, "notes.txt", "nothing")

	tests := []struct {
		name string
		dir  string
		code string
	}{
		{"missing directory", filepath.Join(t.TempDir(), "absent"), registry.ErrCodeNotFound},
		{"no cue files", empty, registry.ErrCodeNoFiles},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, "validate", tt.dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestCompile_WritesDescriptors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", validDecls)
	output := filepath.Join(t.TempDir(), "decls.json")

	out, _, err := executeCommand(t, "compile", dir, "-o", output)
	require.NoError(t, err)
	assert.Equal(t, "✓ Compiled 1 interfaces, 2 classes\n", out)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var decls Declarations
	require.NoError(t, json.Unmarshal(data, &decls))
	require.Len(t, decls.Interfaces, 1)
	assert.Equal(t, "Sized", decls.Interfaces[0].Name)
	require.Len(t, decls.Classes, 2)
	assert.Equal(t, "StorageException", decls.Classes[0].Name)
	assert.Equal(t, "RuntimeException", decls.Classes[0].Extends)
}

func TestCompile_ListsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", validDecls)

	out, _, err := executeCommand(t, "compile", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "interface Sized extends Countable\n")
	assert.Contains(t, out, "class Bag implements Sized\n")
}

func TestCompile_InvalidWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.cue", invalidDecls)
	output := filepath.Join(t.TempDir(), "decls.json")

	_, _, err := executeCommand(t, "compile", dir, "-o", output)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.NoFileExists(t, output)
}
