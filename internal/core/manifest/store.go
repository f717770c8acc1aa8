package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/nightconcept/gdpm-go/internal/core/filesystem"
)

const (
	// Dir is the project-relative folder holding the manifest.
	Dir = "project"
	// FileName is the manifest file name, for projects and package descriptors alike.
	FileName = "godot-package.json"
	// IgnoreMarker tells Godot not to import the contents of Dir.
	IgnoreMarker = ".gdignore"
	// InitialVersion is the version written by Init.
	InitialVersion Version = "0.0.0"
)

var (
	ErrNotFound      = errors.New("manifest not found")
	ErrAlreadyExists = errors.New("manifest already exists")
	ErrInvalid       = errors.New("invalid manifest")
)

// Error reports a failed manifest operation.
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

// PathIn returns the manifest path inside dir, which is either a project root or a
// package source directory.
func PathIn(dir string) string {
	return filepath.Join(dir, Dir, FileName)
}

// Store reads and writes the manifest of the project rooted at Root.
type Store struct {
	Root string
}

// NewStore returns a Store for the project rooted at root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

// Path returns the canonical manifest path.
func (s *Store) Path() string {
	return PathIn(s.Root)
}

// Exists reports whether the manifest file is present.
func (s *Store) Exists() bool {
	return filesystem.PathExists(s.Path())
}

// Read loads and validates the whole manifest.
func (s *Store) Read() (*Manifest, error) {
	m, err := decode(s.Path())
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid manifest file: %s", s.Path()), Err: fmt.Errorf("%w: %w", ErrInvalid, err)}
	}
	return m, nil
}

// ReadDescriptor loads the package descriptor inside the package source dir.
func ReadDescriptor(dir string) (*Manifest, error) {
	path := PathIn(dir)
	m, err := decode(path)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateDescriptor(); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid package descriptor: %s", path), Err: fmt.Errorf("%w: %w", ErrInvalid, err)}
	}
	return m, nil
}

func decode(path string) (*Manifest, error) {
	var raw json.RawMessage
	if err := filesystem.ReadJSONFile(path, &raw); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Msg: fmt.Sprintf("failed to read %s", path), Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
		}
		return nil, &Error{Msg: fmt.Sprintf("failed to read %s", path), Err: err}
	}

	if err := checkDuplicateKeys(raw); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid manifest file: %s", path), Err: fmt.Errorf("%w: %w", ErrInvalid, err)}
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &Error{Msg: fmt.Sprintf("invalid manifest file: %s", path), Err: fmt.Errorf("%w: %w", ErrInvalid, err)}
	}
	if m.Dependencies == nil {
		m.Dependencies = make(map[string]Dependency)
	}
	return &m, nil
}

// checkDuplicateKeys rejects JSON objects that repeat a key; encoding/json would
// silently keep the last value.
func checkDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := walkValue(dec, "$"); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

func walkValue(dec *json.Decoder, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := keyTok.(string)
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate key %q in %s", key, path)
			}
			seen[key] = struct{}{}
			if err := walkValue(dec, path+"."+key); err != nil {
				return err
			}
		}
	case '[':
		for i := 0; dec.More(); i++ {
			if err := walkValue(dec, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	// closing delimiter
	_, err = dec.Token()
	return err
}

// Write serializes m with two-space indentation and overwrites the manifest file.
func (s *Store) Write(m *Manifest) error {
	out := *m
	if out.Dependencies == nil {
		out.Dependencies = make(map[string]Dependency)
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return &Error{Msg: fmt.Sprintf("failed to write manifest file: %s", s.Path()), Err: err}
	}
	if err := filesystem.CreateDirectory(filepath.Dir(s.Path())); err != nil {
		return &Error{Msg: fmt.Sprintf("failed to write manifest file: %s", s.Path()), Err: err}
	}
	if err := filesystem.WriteTextFile(s.Path(), string(data)+"\n"); err != nil {
		return &Error{Msg: fmt.Sprintf("failed to write manifest file: %s", s.Path()), Err: err}
	}
	return nil
}

// Install reads the current manifest and returns it with pkg recorded under key,
// or under pkg.Name when key is empty. An existing entry is replaced, not merged.
// The result is not persisted.
func (s *Store) Install(pkg Package, key string) (*Manifest, error) {
	m, err := s.Read()
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = pkg.Name
	}
	updated := m.With(key, DependencyFor(pkg))
	return &updated, nil
}

// Uninstall reads the current manifest and returns it without the entry for pkg.Name.
// A missing entry leaves the manifest unchanged. The result is not persisted.
func (s *Store) Uninstall(pkg Package) (*Manifest, error) {
	m, err := s.Read()
	if err != nil {
		return nil, err
	}
	if _, ok := m.Dependencies[pkg.Name]; !ok {
		return m, nil
	}
	updated := m.Without(pkg.Name)
	return &updated, nil
}

// InitOptions customises the manifest written by Init.
type InitOptions struct {
	// Type, when set, declares the project itself as an addon or module package.
	Type PackageType
	// Schema is written as the $schema pointer when non-empty.
	Schema string
}

// Init writes a default manifest and the ignore marker. It fails if a manifest exists.
func (s *Store) Init(opts InitOptions) (*Manifest, error) {
	if s.Exists() {
		return nil, &Error{Msg: fmt.Sprintf("%s already exists", s.Path()), Err: ErrAlreadyExists}
	}
	if opts.Type != "" {
		if err := opts.Type.Validate(); err != nil {
			return nil, &Error{Msg: "failed to initialize manifest", Err: err}
		}
	}

	dir := filepath.Join(s.Root, Dir)
	if err := filesystem.CreateDirectory(dir); err != nil {
		return nil, &Error{Msg: "failed to initialize manifest", Err: err}
	}

	m := &Manifest{
		Schema:       opts.Schema,
		Name:         filesystem.CurrentFolderName(s.Root),
		Version:      InitialVersion,
		Type:         opts.Type,
		Dependencies: make(map[string]Dependency),
	}
	if err := s.Write(m); err != nil {
		return nil, err
	}
	if err := filesystem.WriteTextFile(filepath.Join(dir, IgnoreMarker), ""); err != nil {
		return nil, &Error{Msg: "failed to initialize manifest", Err: err}
	}
	return m, nil
}
