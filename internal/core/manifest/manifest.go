// Package manifest models godot-package.json: the project's declared identity and
// dependencies, and the package descriptors found inside package sources.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Version is a MAJOR.MINOR.PATCH string with no pre-release or build metadata.
type Version string

// ParseVersion returns s as a Version, or an error if it is not exactly three
// dot-separated non-negative integers.
func ParseVersion(s string) (Version, error) {
	v := Version(s)
	if err := v.Validate(); err != nil {
		return "", err
	}
	return v, nil
}

// Validate reports whether v has the MAJOR.MINOR.PATCH form.
func (v Version) Validate() error {
	if !versionPattern.MatchString(string(v)) {
		return fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", string(v))
	}
	return nil
}

func (v Version) String() string { return string(v) }

// PackageType decides where a package's payload is installed.
type PackageType string

const (
	// TypeAddon packages are copied into the shared addons directory.
	TypeAddon PackageType = "addon"
	// TypeModule packages are copied into godot_modules/<name>.
	TypeModule PackageType = "module"
)

// ParsePackageType validates s as a PackageType.
func ParsePackageType(s string) (PackageType, error) {
	t := PackageType(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate reports whether t is one of the known package types.
func (t PackageType) Validate() error {
	switch t {
	case TypeAddon, TypeModule:
		return nil
	default:
		return fmt.Errorf("invalid package type %q: expected %q or %q", string(t), TypeAddon, TypeModule)
	}
}

// Package is a single installable package. Name is its identity in the manifest
// and in install paths.
type Package struct {
	Name    string      `json:"name"`
	Version Version     `json:"version"`
	Source  string      `json:"source,omitempty"`
	Type    PackageType `json:"type,omitempty"`
}

// ValidateName checks that name can be used as a single install folder name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("package name must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("invalid package name %q", name)
	case strings.ContainsAny(name, `/\`) || name != filepath.Base(name):
		return fmt.Errorf("invalid package name %q: must not contain a path separator", name)
	}
	return nil
}

// Validate checks the name, version and (when set) type of p.
func (p Package) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if err := p.Version.Validate(); err != nil {
		return err
	}
	if p.Type != "" {
		return p.Type.Validate()
	}
	return nil
}

// Dependency is the value stored under a key in the manifest's dependencies.
// It is either a bare version string or a detailed object with an optional
// source and type.
type Dependency struct {
	Version  Version
	Source   string
	Type     PackageType
	detailed bool
}

// VersionOnly returns the shorthand form of a dependency: just a version string.
func VersionOnly(v Version) Dependency {
	return Dependency{Version: v}
}

// Detailed returns the object form of a dependency.
func Detailed(v Version, source string, t PackageType) Dependency {
	return Dependency{Version: v, Source: source, Type: t, detailed: true}
}

// DependencyFor returns the manifest entry recorded when pkg is installed.
func DependencyFor(pkg Package) Dependency {
	return Detailed(pkg.Version, pkg.Source, pkg.Type)
}

// IsDetailed reports whether d is in object form.
func (d Dependency) IsDetailed() bool { return d.detailed }

// Validate checks the version and, for the object form, the type.
func (d Dependency) Validate() error {
	if err := d.Version.Validate(); err != nil {
		return err
	}
	if d.Type != "" {
		return d.Type.Validate()
	}
	return nil
}

// Package rebuilds the Package stored under name.
func (d Dependency) Package(name string) Package {
	return Package{Name: name, Version: d.Version, Source: d.Source, Type: d.Type}
}

type detailedDependency struct {
	Version Version     `json:"version"`
	Source  string      `json:"source,omitempty"`
	Type    PackageType `json:"type,omitempty"`
}

func (d Dependency) MarshalJSON() ([]byte, error) {
	if !d.detailed {
		return json.Marshal(string(d.Version))
	}
	return json.Marshal(detailedDependency{Version: d.Version, Source: d.Source, Type: d.Type})
}

func (d *Dependency) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty dependency value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*d = VersionOnly(Version(s))
		return nil
	case '{':
		// A "name" field, as older manifests stored, is ignored: the key is the name.
		var obj detailedDependency
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		*d = Detailed(obj.Version, obj.Source, obj.Type)
		return nil
	default:
		return fmt.Errorf("dependency must be a version string or an object, got %s", string(trimmed))
	}
}

// Manifest is the content of godot-package.json, both for the host project and for
// the descriptor inside each package source.
type Manifest struct {
	Schema        string                `json:"$schema,omitempty"`
	Name          string                `json:"name"`
	Version       Version               `json:"version"`
	Type          PackageType           `json:"type,omitempty"`
	Dependencies  map[string]Dependency `json:"dependencies"`
	DefaultSource string                `json:"defaultSource,omitempty"`
}

// Validate checks every field of a project manifest.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name: must not be empty")
	}
	if err := m.Version.Validate(); err != nil {
		return fmt.Errorf("version: %w", err)
	}
	return m.validateCommon()
}

// ValidateDescriptor checks a package descriptor. Name and version may be omitted
// (the installer supplies defaults) but must be well formed when present.
func (m *Manifest) ValidateDescriptor() error {
	if m.Version != "" {
		if err := m.Version.Validate(); err != nil {
			return fmt.Errorf("version: %w", err)
		}
	}
	return m.validateCommon()
}

func (m *Manifest) validateCommon() error {
	if m.Type != "" {
		if err := m.Type.Validate(); err != nil {
			return fmt.Errorf("type: %w", err)
		}
	}
	for _, key := range m.Keys() {
		if err := ValidateName(key); err != nil {
			return fmt.Errorf("dependencies: %w", err)
		}
		if err := m.Dependencies[key].Validate(); err != nil {
			return fmt.Errorf("dependencies.%s: %w", key, err)
		}
	}
	return nil
}

// Keys returns the dependency keys in sorted order.
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.Dependencies))
	for k := range m.Dependencies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// With returns a copy of m whose dependency under key is replaced by dep.
func (m Manifest) With(key string, dep Dependency) Manifest {
	deps := make(map[string]Dependency, len(m.Dependencies)+1)
	for k, v := range m.Dependencies {
		deps[k] = v
	}
	deps[key] = dep
	m.Dependencies = deps
	return m
}

// Without returns a copy of m with the dependency under key removed.
func (m Manifest) Without(key string) Manifest {
	deps := make(map[string]Dependency, len(m.Dependencies))
	for k, v := range m.Dependencies {
		if k != key {
			deps[k] = v
		}
	}
	m.Dependencies = deps
	return m
}

// FindDependency returns the entry for name. Entries that fail validation are
// reported as absent.
func FindDependency(m *Manifest, name string) (Dependency, bool) {
	if m == nil {
		return Dependency{}, false
	}
	dep, ok := m.Dependencies[name]
	if !ok || dep.Validate() != nil {
		return Dependency{}, false
	}
	return dep, true
}
