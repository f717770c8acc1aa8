package installer

import (
	"fmt"
	"path/filepath"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
	"github.com/nightconcept/gdpm-go/internal/core/resolver"
)

// Uninstall removes the manifest entry for name and deletes its install
// directories. Directories are looked up under both the manifest key and, when the
// package source can still be resolved, its declared name. An empty godot_modules
// folder left behind is removed too.
func (i *Installer) Uninstall(name string) (manifest.Package, error) {
	if !i.Store.Exists() {
		return manifest.Package{}, &Error{Msg: "no manifest found. Run `gdpm init` to create one", Err: manifest.ErrNotFound}
	}

	m, err := i.Store.Read()
	if err != nil {
		return manifest.Package{}, err
	}

	dep, ok := manifest.FindDependency(m, name)
	if !ok {
		return manifest.Package{}, &Error{Msg: fmt.Sprintf("package %q is not installed", name)}
	}
	pkg := dep.Package(name)

	for _, n := range i.installedNames(name, m) {
		for _, kind := range []manifest.PackageType{manifest.TypeAddon, manifest.TypeModule} {
			path := i.InstallPath(kind, n)
			if err := filesystem.RemoveDirectory(path); err != nil {
				return manifest.Package{}, &Error{Msg: fmt.Sprintf("failed to uninstall %s", name), Err: err}
			}
			i.Logger.Debug("removed install directory", "package", name, "path", path)
		}
	}

	modules := filepath.Join(i.Root, ModulesDir)
	if filesystem.PathExists(modules) && filesystem.IsEmpty(modules) {
		if err := filesystem.RemoveDirectory(modules); err != nil {
			return manifest.Package{}, &Error{Msg: fmt.Sprintf("failed to uninstall %s", name), Err: err}
		}
	}

	updated, err := i.Store.Uninstall(pkg)
	if err != nil {
		return manifest.Package{}, err
	}
	if err := i.Store.Write(updated); err != nil {
		return manifest.Package{}, err
	}

	i.Logger.Info("uninstalled package", "package", name)
	return pkg, nil
}

// installedNames lists the folder names a package may occupy: its manifest key,
// plus the declared name from the descriptor in the source subfolder named after
// the key. A single-package source root says nothing about which key it serves.
func (i *Installer) installedNames(key string, m *manifest.Manifest) []string {
	names := []string{key}
	res, ok := resolver.Resolve(key, i.sourceRoot(m))
	if !ok || res.Layout != resolver.LayoutSubfolder {
		return names
	}
	d, err := manifest.ReadDescriptor(res.Dir)
	if err != nil || d.Name == key || manifest.ValidateName(d.Name) != nil {
		return names
	}
	return append(names, d.Name)
}
