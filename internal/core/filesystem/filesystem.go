// Package filesystem provides the directory primitives the installer builds on:
// existence checks, recursive removal, JSON reads and a staged directory copy that
// swaps the destination in with a single rename.
package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// StagingSuffix is appended to a copy destination while its contents are staged.
const StagingSuffix = ".installing"

// Error reports a failed filesystem operation and carries the underlying cause.
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

func newError(err error, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Err: err}
}

// copyFile is swapped out in tests to simulate a failure mid-copy.
var copyFile = copyRegularFile

// PathExists reports whether path exists. Any stat error counts as absence.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateDirectory creates path and any missing parents. An existing directory is not an error.
func CreateDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return newError(err, "failed to create directory: %s", path)
	}
	return nil
}

// CopyDirectoryContents replaces destination with a recursive copy of every entry in source.
//
// Entries are staged into destination+StagingSuffix first. Only once the whole tree has been
// copied is the old destination removed and the staging directory renamed onto it, so a failed
// copy leaves destination exactly as it was and removes the staging directory.
func CopyDirectoryContents(source, destination string) (err error) {
	info, err := os.Stat(source)
	if err != nil {
		return newError(err, "failed to copy directory contents from %s to %s", source, destination)
	}
	if !info.IsDir() {
		return newError(fmt.Errorf("%s is not a directory", source), "failed to copy directory contents from %s to %s", source, destination)
	}

	staging := destination + StagingSuffix
	// A previous process may have been killed mid-copy.
	if err := os.RemoveAll(staging); err != nil {
		return newError(err, "failed to clear stale staging directory %s", staging)
	}

	defer func() {
		if err != nil {
			_ = os.RemoveAll(staging)
		}
	}()

	if err = os.MkdirAll(staging, 0o755); err != nil {
		return newError(err, "failed to copy directory contents from %s to %s", source, destination)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return newError(err, "failed to copy directory contents from %s to %s", source, destination)
	}
	for _, entry := range entries {
		if err = copyTree(filepath.Join(source, entry.Name()), filepath.Join(staging, entry.Name())); err != nil {
			return newError(err, "failed to copy directory contents from %s to %s", source, destination)
		}
	}

	if err = os.RemoveAll(destination); err != nil {
		return newError(err, "failed to replace %s", destination)
	}
	if err = os.Rename(staging, destination); err != nil {
		return newError(err, "failed to move %s into place at %s", staging, destination)
	}
	return nil
}

func copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch mode := info.Mode(); {
	case mode&fs.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	case mode.IsDir():
		if err := os.MkdirAll(dst, mode.Perm()|0o700); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	case mode.IsRegular():
		return copyFile(src, dst, mode.Perm())
	default:
		return fmt.Errorf("unsupported file type %s for %s", mode.Type(), src)
	}
}

func copyRegularFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// RemoveDirectory deletes path recursively. A missing path is not an error.
// When path is itself a symbolic link only the link is removed.
func RemoveDirectory(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return newError(err, "failed to remove directory: %s", path)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		err = os.Remove(path)
	} else {
		err = os.RemoveAll(path)
	}
	if err != nil {
		return newError(err, "failed to remove directory: %s", path)
	}
	return nil
}

// IsEmpty reports whether path is an existing directory with no entries.
func IsEmpty(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	_, err = f.Readdirnames(1)
	return errors.Is(err, io.EOF)
}

// ListDirectories returns the sorted names of the immediate subdirectories of path.
func ListDirectories(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, newError(err, "failed to list directory: %s", path)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadJSONFile decodes the JSON file at path into v.
func ReadJSONFile(path string, v any) error {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return newError(nil, "file %s is not a JSON file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return newError(err, "failed to read JSON file: %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return newError(err, "failed to read JSON file: %s", path)
	}
	return nil
}

// ReadFile returns the raw contents of path.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(err, "failed to read file: %s", path)
	}
	return data, nil
}

// WriteTextFile creates or truncates path and writes content to it.
func WriteTextFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return newError(err, "failed to write file: %s", path)
	}
	return nil
}

// CurrentFolderName returns the base name of dir, resolved to an absolute path first.
func CurrentFolderName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}
