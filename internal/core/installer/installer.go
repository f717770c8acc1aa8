// Package installer copies package payloads into a Godot project and keeps the
// project manifest in step with what is on disk.
package installer

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nightconcept/gdpm-go/internal/core/classifier"
	"github.com/nightconcept/gdpm-go/internal/core/config"
	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
	"github.com/nightconcept/gdpm-go/internal/core/resolver"
)

const (
	// ModulesDir holds one folder per module package.
	ModulesDir = "godot_modules"
	// AddonsDir is Godot's shared addons folder.
	AddonsDir = "addons"
	// SourceDir is the payload folder of a module package.
	SourceDir = "src"
	// DefaultPackageVersion is assumed when a descriptor omits its version.
	DefaultPackageVersion manifest.Version = "1.0.0"
)

// Error reports a failed install or uninstall precondition or step.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Installer runs install and uninstall operations for the project rooted at Root.
type Installer struct {
	Root       string
	Store      *manifest.Store
	Classifier *classifier.Classifier
	Settings   *config.Settings
	Logger     *log.Logger
}

// Option customises an Installer.
type Option func(*Installer)

// WithSettings sets the user settings consulted for the source root and $schema.
func WithSettings(s *config.Settings) Option {
	return func(i *Installer) { i.Settings = s }
}

// WithLogger sets the progress logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) { i.Logger = l }
}

// WithClassifier replaces the default addon/module policy.
func WithClassifier(c *classifier.Classifier) Option {
	return func(i *Installer) { i.Classifier = c }
}

// New returns an Installer for root. Without options it logs nothing and uses
// empty settings.
func New(root string, opts ...Option) *Installer {
	i := &Installer{
		Root:       root,
		Store:      manifest.NewStore(root),
		Classifier: classifier.Default(),
		Settings:   &config.Settings{},
		Logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// InstallPath returns where a package named name of the given type is installed.
func (i *Installer) InstallPath(kind manifest.PackageType, name string) string {
	if kind == manifest.TypeAddon {
		return filepath.Join(i.Root, AddonsDir, name)
	}
	return filepath.Join(i.Root, ModulesDir, name)
}

// Result describes a completed single-package install.
type Result struct {
	Package   manifest.Package
	Key       string
	Kind      manifest.PackageType
	SourceDir string
	// Paths are the install directories that were (re)written.
	Paths []string
}

// Install resolves input under the configured source root, copies its payload into
// the project and records it in the manifest under key. An empty key selects the
// input token when the package was found in a differently named subfolder, and the
// declared package name otherwise. A missing manifest is initialised first.
func (i *Installer) Install(input, key string) (*Result, error) {
	i.Logger.Debug("installing package", "package", input)

	if err := manifest.ValidateName(input); err != nil {
		return nil, &Error{Msg: "invalid package name", Err: err}
	}
	if key != "" {
		if err := manifest.ValidateName(key); err != nil {
			return nil, &Error{Msg: "invalid manifest key", Err: err}
		}
	}

	if !i.Store.Exists() {
		i.Logger.Info("No manifest found. Initializing...", "path", i.Store.Path())
		if _, err := i.Store.Init(manifest.InitOptions{Schema: i.Settings.Schema}); err != nil {
			return nil, err
		}
	}

	m, err := i.Store.Read()
	if err != nil {
		return nil, err
	}

	sourceRoot := i.sourceRoot(m)
	res, ok := resolver.Resolve(input, sourceRoot)
	if !ok {
		single, sub := resolver.Candidates(input, sourceRoot)
		return nil, &Error{Msg: fmt.Sprintf("package %q not found: expected %s/%s in %q or %q", input, manifest.Dir, manifest.FileName, single, sub)}
	}
	i.Logger.Debug("resolved package source", "package", input, "dir", res.Dir, "layout", res.Layout)

	pkg, err := readPackage(input, res.Dir)
	if err != nil {
		return nil, err
	}

	kind := i.Classifier.Classify(pkg, res.Dir)
	i.Logger.Debug("classified package", "package", pkg.Name, "kind", kind)

	var paths []string
	if kind == manifest.TypeAddon {
		paths, err = i.installAddon(pkg, res.Dir)
	} else {
		paths, err = i.installModule(pkg, res.Dir)
	}
	if err != nil {
		return nil, err
	}

	if key == "" {
		key = pkg.Name
		if res.Layout == resolver.LayoutSubfolder && input != pkg.Name {
			key = input
		}
	}

	updated, err := i.Store.Install(pkg, key)
	if err != nil {
		return nil, err
	}
	if err := i.Store.Write(updated); err != nil {
		return nil, err
	}

	i.Logger.Info("installed package", "package", pkg.Name, "version", pkg.Version, "kind", kind)
	return &Result{Package: pkg, Key: key, Kind: kind, SourceDir: res.Dir, Paths: paths}, nil
}

// sourceRoot expands the configured source root; relative roots are taken from the
// project root.
func (i *Installer) sourceRoot(m *manifest.Manifest) string {
	root := resolver.ExpandHome(i.Settings.SourceRoot(m.DefaultSource))
	if !filepath.IsAbs(root) {
		root = filepath.Join(i.Root, root)
	}
	return root
}

// readPackage loads the descriptor in dir, defaulting the name to input and the
// version to DefaultPackageVersion.
func readPackage(input, dir string) (manifest.Package, error) {
	d, err := manifest.ReadDescriptor(dir)
	if err != nil {
		return manifest.Package{}, &Error{Msg: fmt.Sprintf("failed to read package descriptor for %q", input), Err: err}
	}

	pkg := manifest.Package{
		Name:    d.Name,
		Version: d.Version,
		Source:  d.DefaultSource,
		Type:    d.Type,
	}
	if pkg.Name == "" {
		pkg.Name = input
	}
	if pkg.Version == "" {
		pkg.Version = DefaultPackageVersion
	}
	if err := manifest.ValidateName(pkg.Name); err != nil {
		return manifest.Package{}, &Error{Msg: fmt.Sprintf("invalid package descriptor for %q", input), Err: err}
	}
	return pkg, nil
}

func (i *Installer) installModule(pkg manifest.Package, sourceDir string) ([]string, error) {
	src := filepath.Join(sourceDir, SourceDir)
	if !filesystem.PathExists(src) {
		return nil, &Error{Msg: fmt.Sprintf("package source must contain a '%s' directory: %s", SourceDir, src)}
	}

	dest := i.InstallPath(manifest.TypeModule, pkg.Name)
	if err := filesystem.CopyDirectoryContents(src, dest); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("failed to install module %s", pkg.Name), Err: err}
	}
	i.Logger.Debug("copied module payload", "package", pkg.Name, "path", dest)
	return []string{dest}, nil
}

func (i *Installer) installAddon(pkg manifest.Package, sourceDir string) ([]string, error) {
	addonsSrc := filepath.Join(sourceDir, AddonsDir)
	if !filesystem.PathExists(addonsSrc) {
		return nil, &Error{Msg: fmt.Sprintf("package source must contain an '%s' directory: %s", AddonsDir, addonsSrc)}
	}

	projectAddons := filepath.Join(i.Root, AddonsDir)
	if err := filesystem.CreateDirectory(projectAddons); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("failed to install addon %s", pkg.Name), Err: err}
	}

	named := filepath.Join(addonsSrc, pkg.Name)
	if filesystem.PathExists(named) {
		dest := filepath.Join(projectAddons, pkg.Name)
		if err := filesystem.CopyDirectoryContents(named, dest); err != nil {
			return nil, &Error{Msg: fmt.Sprintf("failed to install addon %s", pkg.Name), Err: err}
		}
		i.Logger.Debug("copied addon payload", "package", pkg.Name, "path", dest)
		return []string{dest}, nil
	}

	// No folder matches the package name: install every addon folder as a bundle.
	dirs, err := filesystem.ListDirectories(addonsSrc)
	if err != nil {
		return nil, &Error{Msg: fmt.Sprintf("failed to install addon %s", pkg.Name), Err: err}
	}
	if len(dirs) == 0 {
		return nil, &Error{Msg: fmt.Sprintf("no addon directories found in: %s", addonsSrc)}
	}

	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dest := filepath.Join(projectAddons, dir)
		if err := filesystem.CopyDirectoryContents(filepath.Join(addonsSrc, dir), dest); err != nil {
			return nil, &Error{Msg: fmt.Sprintf("failed to install addon %s", pkg.Name), Err: err}
		}
		i.Logger.Debug("copied bundled addon", "package", pkg.Name, "addon", dir, "path", dest)
		paths = append(paths, dest)
	}
	return paths, nil
}
