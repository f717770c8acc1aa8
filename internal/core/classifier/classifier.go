// Package classifier decides whether a package installs as an addon or a module.
package classifier

import (
	"path/filepath"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// Strategy inspects a package and either returns a type with ok set, or has no opinion.
type Strategy interface {
	Classify(pkg manifest.Package, sourceDir string) (t manifest.PackageType, ok bool)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(pkg manifest.Package, sourceDir string) (manifest.PackageType, bool)

func (f StrategyFunc) Classify(pkg manifest.Package, sourceDir string) (manifest.PackageType, bool) {
	return f(pkg, sourceDir)
}

// Explicit honors a type declared by the package itself.
var Explicit = StrategyFunc(func(pkg manifest.Package, _ string) (manifest.PackageType, bool) {
	if pkg.Type == "" {
		return "", false
	}
	return pkg.Type, true
})

// FolderProbe classifies as t when sourceDir/folder exists according to exists.
func FolderProbe(folder string, t manifest.PackageType, exists func(string) bool) Strategy {
	return StrategyFunc(func(_ manifest.Package, sourceDir string) (manifest.PackageType, bool) {
		if exists(filepath.Join(sourceDir, folder)) {
			return t, true
		}
		return "", false
	})
}

// Classifier evaluates its strategies in order; the first opinion wins.
type Classifier struct {
	Strategies []Strategy
	Default    manifest.PackageType
}

// New returns a Classifier over strategies that falls back to module.
func New(strategies ...Strategy) *Classifier {
	return &Classifier{Strategies: strategies, Default: manifest.TypeModule}
}

// Default returns the standard policy: explicit type, then an addons folder, then a
// src folder, else module.
func Default() *Classifier {
	return WithExists(filesystem.PathExists)
}

// WithExists returns the standard policy using exists to probe folders.
func WithExists(exists func(string) bool) *Classifier {
	return New(
		Explicit,
		FolderProbe("addons", manifest.TypeAddon, exists),
		FolderProbe("src", manifest.TypeModule, exists),
	)
}

// Classify returns the package type for pkg found at sourceDir.
func (c *Classifier) Classify(pkg manifest.Package, sourceDir string) manifest.PackageType {
	for _, s := range c.Strategies {
		if t, ok := s.Classify(pkg, sourceDir); ok {
			return t
		}
	}
	return c.Default
}
