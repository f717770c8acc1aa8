package installer

import (
	"errors"
	"fmt"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
	"github.com/nightconcept/gdpm-go/internal/core/manifest"
)

// Failure is a package that could not be installed during a batch.
type Failure struct {
	Key string
	Err error
}

// Report tallies a batch install.
type Report struct {
	Installed []string
	Failed    []Failure
}

// Total is the number of packages attempted.
func (r *Report) Total() int {
	return len(r.Installed) + len(r.Failed)
}

// Err is nil when every package installed, and otherwise joins the failures.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Key, f.Err))
	}
	return &Error{
		Msg: fmt.Sprintf("%d of %d packages failed to install", len(r.Failed), r.Total()),
		Err: errors.Join(errs...),
	}
}

// InstallAll installs every dependency declared in the manifest, one at a time.
// A package that fails is recorded in the report and the batch moves on; packages
// already installed stay installed. An empty dependency list is a no-op.
func (i *Installer) InstallAll() (*Report, error) {
	m, err := i.Store.Read()
	if err != nil {
		return nil, err
	}

	keys := m.Keys()
	if len(keys) == 0 {
		i.Logger.Info("No dependencies found in manifest")
		return &Report{}, nil
	}
	i.Logger.Info("Installing dependencies", "count", len(keys))
	return i.installEach(keys)
}

// InstallOthers reinstalls every declared dependency except justInstalled. It is
// meant to follow a single Install and never cascades further.
func (i *Installer) InstallOthers(justInstalled string) (*Report, error) {
	m, err := i.Store.Read()
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, k := range m.Keys() {
		if k != justInstalled {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		i.Logger.Debug("No other dependencies to reinstall", "package", justInstalled)
		return &Report{}, nil
	}
	i.Logger.Info("Reinstalling other dependencies", "count", len(keys))
	return i.installEach(keys)
}

// installEach installs keys in order. Package-level failures are tallied; a failure
// of the project manifest itself stops the batch, since every later install would
// hit it too.
func (i *Installer) installEach(keys []string) (*Report, error) {
	report := &Report{}
	for _, key := range keys {
		if _, err := i.Install(key, key); err != nil {
			if !recoverable(err) {
				return report, err
			}
			i.Logger.Error("failed to install package", "package", key, "err", err)
			report.Failed = append(report.Failed, Failure{Key: key, Err: err})
			continue
		}
		report.Installed = append(report.Installed, key)
	}
	return report, nil
}

func recoverable(err error) bool {
	var pkgErr *Error
	if errors.As(err, &pkgErr) {
		return true
	}
	var mErr *manifest.Error
	if errors.As(err, &mErr) {
		return false
	}
	var fsErr *filesystem.Error
	return errors.As(err, &fsErr)
}
