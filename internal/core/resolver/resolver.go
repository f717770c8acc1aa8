// Package resolver locates a package's source directory under a local source root.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// Layout records which lookup tier matched.
type Layout int

const (
	// LayoutSingle means the source root is itself the package.
	LayoutSingle Layout = iota
	// LayoutSubfolder means the package is a named folder inside the source root.
	LayoutSubfolder
)

func (l Layout) String() string {
	if l == LayoutSubfolder {
		return "subfolder"
	}
	return "single"
}

// Resolution is a package directory found by Resolve.
type Resolution struct {
	Dir    string
	Layout Layout
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Candidates returns the two directories Resolve checks, in order.
func Candidates(name, sourceRoot string) (single, subfolder string) {
	return sourceRoot, filepath.Join(sourceRoot, name)
}

// Resolve finds the directory holding the package descriptor for name. The source
// root itself wins when it contains a descriptor; otherwise the named subfolder is
// tried.
func Resolve(name, sourceRootRaw string) (Resolution, bool) {
	single, subfolder := Candidates(name, ExpandHome(sourceRootRaw))

	if filesystem.PathExists(manifest.PathIn(single)) {
		return Resolution{Dir: single, Layout: LayoutSingle}, true
	}
	if name != "" && filesystem.PathExists(manifest.PathIn(subfolder)) {
		return Resolution{Dir: subfolder, Layout: LayoutSubfolder}, true
	}
	return Resolution{}, false
}
