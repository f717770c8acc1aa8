package installer

import (
	"github.com/Masterminds/semver/v3"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/hasher"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
	"github.com/nightconcept/gdpm-go/internal/core/resolver"
)

// PackageStatus is the on-disk state of one declared dependency.
type PackageStatus struct {
	Key        string
	Dependency manifest.Dependency
	Installed  bool
	// Kind and Path are set when Installed.
	Kind manifest.PackageType
	Path string
	// Digest is a content hash of Path, empty when it could not be computed.
	Digest string
	// SourceVersion is the version found in the package source, if resolvable.
	SourceVersion manifest.Version
}

// UpdateAvailable reports whether the package source carries a newer version than
// the one recorded in the manifest.
func (s PackageStatus) UpdateAvailable() bool {
	if s.SourceVersion == "" {
		return false
	}
	declared, err := semver.NewVersion(s.Dependency.Version.String())
	if err != nil {
		return false
	}
	available, err := semver.NewVersion(s.SourceVersion.String())
	if err != nil {
		return false
	}
	return available.GreaterThan(declared)
}

// Status reads the manifest and reports every dependency in key order.
func (i *Installer) Status() (*manifest.Manifest, []PackageStatus, error) {
	m, err := i.Store.Read()
	if err != nil {
		return nil, nil, err
	}

	sourceRoot := i.sourceRoot(m)
	statuses := make([]PackageStatus, 0, len(m.Dependencies))
	for _, key := range m.Keys() {
		st := PackageStatus{Key: key, Dependency: m.Dependencies[key]}

	probe:
		for _, name := range i.installedNames(key, m) {
			for _, kind := range []manifest.PackageType{manifest.TypeModule, manifest.TypeAddon} {
				path := i.InstallPath(kind, name)
				if filesystem.PathExists(path) {
					st.Installed, st.Kind, st.Path = true, kind, path
					break probe
				}
			}
		}
		if st.Installed {
			if digest, err := hasher.HashDirectory(st.Path); err == nil {
				st.Digest = digest
			} else {
				i.Logger.Warn("failed to hash install directory", "package", key, "err", err)
			}
		}

		if res, ok := resolver.Resolve(key, sourceRoot); ok {
			if d, err := manifest.ReadDescriptor(res.Dir); err == nil {
				st.SourceVersion = d.Version
			}
		}
		statuses = append(statuses, st)
	}
	return m, statuses, nil
}
