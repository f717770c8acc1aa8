package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CalculateSHA256 computes the SHA256 hash of the given content
// and returns it in the format "sha256:<hex_hash>".
func CalculateSHA256(content []byte) (string, error) {
	hasher := sha256.New()
	_, err := hasher.Write(content)
	if err != nil {
		return "", fmt.Errorf("failed to write content to hasher: %w", err)
	}
	return format(hasher.Sum(nil)), nil
}

// HashDirectory computes a digest over every file below root, in the format
// "sha256:<hex_hash>". Relative paths, file contents and symlink targets all
// contribute, so renaming a file changes the digest. Each file's content is
// prefixed with its size. Walk order is lexical.
func HashDirectory(root string) (string, error) {
	hasher := sha256.New()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(hasher, "link %s -> %s\n", rel, target)
		case d.IsDir():
			_, _ = fmt.Fprintf(hasher, "dir %s\n", rel)
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(hasher, "file %s %d\n", rel, info.Size())
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			_, err = io.CopyN(hasher, f, info.Size())
			_ = f.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash directory %s: %w", root, err)
	}
	return format(hasher.Sum(nil)), nil
}

func format(sum []byte) string {
	return fmt.Sprintf("sha256:%s", hex.EncodeToString(sum))
}
