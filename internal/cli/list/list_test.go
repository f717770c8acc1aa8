package list

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// setupListTestEnvironment writes a project manifest and files into a temp
// project, plus package descriptors under a temp source root.
func setupListTestEnvironment(t *testing.T, manifestContent string, files, sources map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()
	sourceDir := t.TempDir()

	write := func(path, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	if manifestContent != "" {
		write(manifest.PathIn(tempDir), manifestContent)
	}
	for rel, content := range files {
		write(filepath.Join(tempDir, rel), content)
	}
	for name, descriptor := range sources {
		write(manifest.PathIn(filepath.Join(sourceDir, name)), descriptor)
	}

	t.Setenv("GDPM_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("GDPM_DEFAULT_SOURCE", sourceDir)
	return tempDir
}

func runListCommand(t *testing.T, workDir string) (string, error) {
	t.Helper()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workDir))
	defer func() {
		require.NoError(t, os.Chdir(originalWd), "Failed to restore original working directory")
	}()

	var out bytes.Buffer
	app := &cli.App{
		Name:      "gdpm-test-list",
		Commands:  []*cli.Command{NewListCommand()},
		Writer:    &out,
		ErrWriter: os.Stderr,
		ExitErrHandler: func(context *cli.Context, err error) {
			// Do nothing, let test assertions handle errors
		},
	}
	err = app.Run([]string{"gdpm-test-list", "list"})
	return out.String(), err
}

func TestListCommand_ShowsStatus(t *testing.T) {
	tempDir := setupListTestEnvironment(t, `{
  "name": "game",
  "version": "1.2.0",
  "dependencies": {
    "dialog": {"version": "1.0.0", "type": "addon"},
    "lib": "1.0.0",
    "missing": "0.1.0"
  }
}`, map[string]string{
		"addons/dialog/plugin.cfg":   "[plugin]",
		"godot_modules/lib/a.gd":     "extends Node",
		"godot_modules/lib/sub/b.gd": "extends Node2D",
	}, map[string]string{
		"lib":     `{"name": "lib", "version": "1.1.0"}`,
		"missing": `{"name": "missing", "version": "0.1.0"}`,
	})

	out, err := runListCommand(t, tempDir)
	require.NoError(t, err)

	assert.Contains(t, out, "game@1.2.0")
	assert.Contains(t, out, "dependencies:")
	assert.Regexp(t, `dialog@1\.0\.0 addon sha256:[0-9a-f]{64} addons/dialog`, out)
	assert.Regexp(t, `lib@1\.0\.0 module sha256:[0-9a-f]{64} godot_modules/lib \(update available: 1\.1\.0\)`, out)
	assert.Contains(t, out, "missing@0.1.0 missing")
	assert.NotContains(t, out, "missing@0.1.0 missing (update available")
}

func TestListCommand_NoDependencies(t *testing.T) {
	tempDir := setupListTestEnvironment(t, `{"name": "game", "version": "1.0.0", "dependencies": {}}`, nil, nil)

	out, err := runListCommand(t, tempDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No dependencies found in manifest.")
}

func TestListCommand_ManifestNotFound(t *testing.T) {
	tempDir := setupListTestEnvironment(t, "", nil, nil)

	_, err := runListCommand(t, tempDir)
	require.Error(t, err)
	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok, "Error should be a cli.ExitCoder")
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "not found")
}
