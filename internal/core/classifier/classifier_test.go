package classifier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightconcept/gdpm-go/internal/core/classifier"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// fakeFS reports the listed paths as existing.
func fakeFS(paths ...string) func(string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestClassify_PolicyOrder(t *testing.T) {
	t.Parallel()
	dir := "/pkg"
	addons := filepath.Join(dir, "addons")
	src := filepath.Join(dir, "src")

	tests := []struct {
		name     string
		pkgType  manifest.PackageType
		existing []string
		want     manifest.PackageType
	}{
		{"explicit module beats addons folder", manifest.TypeModule, []string{addons}, manifest.TypeModule},
		{"explicit addon beats src folder", manifest.TypeAddon, []string{src}, manifest.TypeAddon},
		{"addons folder", "", []string{addons}, manifest.TypeAddon},
		{"addons checked before src", "", []string{addons, src}, manifest.TypeAddon},
		{"src folder", "", []string{src}, manifest.TypeModule},
		{"nothing falls back to module", "", nil, manifest.TypeModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := classifier.WithExists(fakeFS(tt.existing...))
			got := c.Classify(manifest.Package{Name: "lib", Version: "1.0.0", Type: tt.pkgType}, dir)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_CustomStrategies(t *testing.T) {
	t.Parallel()
	never := classifier.StrategyFunc(func(manifest.Package, string) (manifest.PackageType, bool) { return "", false })
	always := classifier.StrategyFunc(func(manifest.Package, string) (manifest.PackageType, bool) { return manifest.TypeAddon, true })

	assert.Equal(t, manifest.TypeAddon, classifier.New(never, always).Classify(manifest.Package{}, "/x"))
	assert.Equal(t, manifest.TypeModule, classifier.New(never).Classify(manifest.Package{}, "/x"))
}

func TestDefault_ProbesDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "addons", "ui"), 0o755))

	assert.Equal(t, manifest.TypeAddon, classifier.Default().Classify(manifest.Package{Name: "ui"}, dir))
	assert.Equal(t, manifest.TypeModule, classifier.Default().Classify(manifest.Package{Name: "ui"}, t.TempDir()))
}
