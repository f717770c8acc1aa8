package uninstall

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/gdpm-go/internal/core/installer"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// setupUninstallTestEnvironment creates a project directory with the given
// manifest and files, and isolates settings from the user's config.
func setupUninstallTestEnvironment(t *testing.T, manifestContent string, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()
	if manifestContent != "" {
		files[filepath.Join(manifest.Dir, manifest.FileName)] = manifestContent
	}
	for relPath, content := range files {
		absPath := filepath.Join(tempDir, relPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(absPath), 0755))
		require.NoError(t, os.WriteFile(absPath, []byte(content), 0644))
	}
	t.Setenv("GDPM_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	t.Setenv("GDPM_DEFAULT_SOURCE", t.TempDir())
	return tempDir
}

func runUninstallCommand(t *testing.T, workDir string, args ...string) (string, error) {
	t.Helper()
	originalWd, err := os.Getwd()
	require.NoError(t, err, "Failed to get current working directory")
	require.NoError(t, os.Chdir(workDir), "Failed to change to working directory")
	defer func() {
		require.NoError(t, os.Chdir(originalWd), "Failed to restore original working directory")
	}()

	var out bytes.Buffer
	app := &cli.App{
		Name:      "gdpm-test-uninstall",
		Commands:  []*cli.Command{NewUninstallCommand()},
		Writer:    &out,
		ErrWriter: os.Stderr,
		ExitErrHandler: func(context *cli.Context, err error) {
			// Do nothing, let test assertions handle errors
		},
	}
	err = app.Run(append([]string{"gdpm-test-uninstall", "uninstall"}, args...))
	return out.String(), err
}

func TestUninstallCommand_SuccessfulRemoval(t *testing.T) {
	tempDir := setupUninstallTestEnvironment(t, `{
  "name": "game",
  "version": "1.0.0",
  "dependencies": {"testlib": "1.0.0", "keep": "1.0.0"}
}`, map[string]string{
		"godot_modules/testlib/lib.gd": "extends Node",
		"godot_modules/keep/keep.gd":   "extends Node",
	})

	out, err := runUninstallCommand(t, tempDir, "testlib")
	require.NoError(t, err)

	assert.Contains(t, out, "Uninstalling package: testlib")
	assert.Contains(t, out, "Successfully uninstalled testlib")
	assert.NoDirExists(t, filepath.Join(tempDir, installer.ModulesDir, "testlib"))
	assert.DirExists(t, filepath.Join(tempDir, installer.ModulesDir, "keep"))

	content, err := os.ReadFile(filepath.Join(tempDir, manifest.Dir, manifest.FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "testlib")
	assert.Contains(t, string(content), "keep")
}

func TestUninstallCommand_RemovesAddon(t *testing.T) {
	tempDir := setupUninstallTestEnvironment(t, `{"name": "game", "version": "1.0.0", "dependencies": {"dialog": "1.0.0"}}`, map[string]string{
		"addons/dialog/plugin.cfg": "[plugin]",
	})

	_, err := runUninstallCommand(t, tempDir, "dialog")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(tempDir, installer.AddonsDir, "dialog"))
}

func TestUninstallCommand_DependencyNotFound(t *testing.T) {
	tempDir := setupUninstallTestEnvironment(t, `{"name": "game", "version": "1.0.0", "dependencies": {}}`, map[string]string{})

	_, err := runUninstallCommand(t, tempDir, "nonexistent")
	require.Error(t, err)
	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok, "Error should be a cli.ExitCoder")
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, err.Error(), `package "nonexistent" is not installed`)
}

func TestUninstallCommand_ManifestNotFound(t *testing.T) {
	tempDir := setupUninstallTestEnvironment(t, "", map[string]string{})

	_, err := runUninstallCommand(t, tempDir, "testlib")
	require.Error(t, err)
	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok, "Error should be a cli.ExitCoder")
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, err.Error(), "gdpm init")
}

func TestUninstallCommand_MissingArgument(t *testing.T) {
	tempDir := setupUninstallTestEnvironment(t, `{"name": "game", "version": "1.0.0", "dependencies": {}}`, map[string]string{})

	_, err := runUninstallCommand(t, tempDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing package name argument")
}
