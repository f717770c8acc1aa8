package installer_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/gdpm-go/internal/core/installer"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

const threeDependencies = `{
  "name": "p",
  "version": "1.0.0",
  "dependencies": {
    "a": "1.0.0",
    "b": {"version": "1.0.0"},
    "c": "1.0.0"
  }
}`

// setupSources writes a module package for each name under a fresh source root.
func setupSources(t *testing.T, names ...string) string {
	t.Helper()
	sources := t.TempDir()
	for _, name := range names {
		addPackage(t, filepath.Join(sources, name), `{"name": "`+name+`", "version": "1.0.0"}`, map[string]string{
			"src/" + name + ".gd": name,
		})
	}
	return sources
}

func TestInstallAll_PartialFailure(t *testing.T) {
	t.Parallel()
	root := setupProject(t, threeDependencies)
	sources := setupSources(t, "a", "c")

	report, err := newInstaller(root, sources).InstallAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, report.Installed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].Key)
	assert.Equal(t, 3, report.Total())

	assert.FileExists(t, filepath.Join(root, installer.ModulesDir, "a", "a.gd"))
	assert.FileExists(t, filepath.Join(root, installer.ModulesDir, "c", "c.gd"))
	assert.NoDirExists(t, filepath.Join(root, installer.ModulesDir, "b"))

	reportErr := report.Err()
	require.Error(t, reportErr)
	var pkgErr *installer.Error
	require.True(t, errors.As(reportErr, &pkgErr))
	assert.Contains(t, reportErr.Error(), "1 of 3 packages failed to install")
	assert.Contains(t, reportErr.Error(), `package "b" not found`)
}

func TestInstallAll_KeepsManifestKeys(t *testing.T) {
	t.Parallel()
	root := setupProject(t, `{"name": "p", "version": "1.0.0", "dependencies": {"folder": "1.0.0"}}`)
	sources := t.TempDir()
	addPackage(t, filepath.Join(sources, "folder"), `{"name": "declared", "version": "2.0.0"}`, map[string]string{"src/x.gd": "pass"})

	report, err := newInstaller(root, sources).InstallAll()
	require.NoError(t, err)
	require.NoError(t, report.Err())

	m, err := manifest.NewStore(root).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"folder"}, m.Keys())
	assert.Equal(t, manifest.Detailed("2.0.0", "", ""), m.Dependencies["folder"])
}

func TestInstallAll_EmptyDependencies(t *testing.T) {
	t.Parallel()
	root := setupProject(t, emptyProjectManifest)

	report, err := newInstaller(root, t.TempDir()).InstallAll()
	require.NoError(t, err)
	assert.Empty(t, report.Installed)
	assert.Empty(t, report.Failed)
	assert.NoError(t, report.Err())
}

func TestInstallAll_MissingManifestAborts(t *testing.T) {
	t.Parallel()
	root := setupProject(t, "")

	report, err := newInstaller(root, t.TempDir()).InstallAll()
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, manifest.ErrNotFound))
}

func TestInstallAll_ManifestWriteFailureAborts(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	t.Parallel()
	root := setupProject(t, threeDependencies)
	sources := setupSources(t, "a", "b", "c")

	// The manifest stays readable but its directory cannot take new files.
	manifestDir := filepath.Join(root, manifest.Dir)
	require.NoError(t, os.Chmod(manifest.PathIn(root), 0o444))
	require.NoError(t, os.Chmod(manifestDir, 0o555))
	t.Cleanup(func() {
		_ = os.Chmod(manifestDir, 0o755)
		_ = os.Chmod(manifest.PathIn(root), 0o644)
	})

	report, err := newInstaller(root, sources).InstallAll()
	require.Error(t, err)
	var mErr *manifest.Error
	assert.True(t, errors.As(err, &mErr), "Expected the manifest error to stop the batch, got %T", err)
	require.NotNil(t, report)
	assert.Empty(t, report.Installed)
	assert.Empty(t, report.Failed)
}

func TestInstallOthers_ExcludesJustInstalled(t *testing.T) {
	t.Parallel()
	root := setupProject(t, threeDependencies)
	sources := setupSources(t, "a", "b", "c")

	report, err := newInstaller(root, sources).InstallOthers("a")
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, report.Installed)
	assert.Empty(t, report.Failed)
	assert.NoDirExists(t, filepath.Join(root, installer.ModulesDir, "a"), "The excluded package is not reinstalled")
	assert.DirExists(t, filepath.Join(root, installer.ModulesDir, "b"))
	assert.DirExists(t, filepath.Join(root, installer.ModulesDir, "c"))
}

func TestInstallOthers_OnlyPackage(t *testing.T) {
	t.Parallel()
	root := setupProject(t, `{"name": "p", "version": "1.0.0", "dependencies": {"a": "1.0.0"}}`)

	report, err := newInstaller(root, setupSources(t, "a")).InstallOthers("a")
	require.NoError(t, err)
	assert.Zero(t, report.Total())
}
