package changelog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileExistsError is returned in create mode when the computed output file
// already exists. Create mode never overwrites.
type FileExistsError struct {
	Path string
}

func (e *FileExistsError) Error() string {
	return fmt.Sprintf("changelog file %s already exists", e.Path)
}

// MissingFileError is returned in update mode when the target file to prepend
// into does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("changelog file %s does not exist", e.Path)
}

// Filename returns the deterministic create-mode output filename for a
// repository and tag, for example "acme_widgets_changelog.1.2.0.md".
func Filename(owner, repo, tag string) string {
	return fmt.Sprintf("%s_%s_changelog.%s.md", owner, repo, tag)
}

// WriteNew writes the rendered document to a new file. It fails with
// *FileExistsError if path already exists.
func WriteNew(path, doc string) error {
	if _, err := os.Stat(path); err == nil {
		return &FileExistsError{Path: path}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return atomicWrite(path, []byte(doc))
}

// UpdateExisting prepends the rendered document above the current contents of
// path. The prior bytes are preserved verbatim after the new section. The
// file is replaced atomically, so a failure mid-write leaves the original
// untouched.
func UpdateExisting(path, doc string) error {
	old, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingFileError{Path: path}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	merged := make([]byte, 0, len(doc)+1+len(old))
	merged = append(merged, doc...)
	merged = append(merged, '\n')
	merged = append(merged, old...)
	return atomicWrite(path, merged)
}

// atomicWrite writes data to a temporary file in the target's directory and
// renames it into place. Rename within one directory is atomic on POSIX
// filesystems.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".changelog-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
