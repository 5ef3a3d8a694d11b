package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// exists reports whether p is present on fs.
func exists(fs billy.Filesystem, p string) (bool, error) {
	_, err := fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// isDir reports whether p is an existing directory.
func isDir(fs billy.Filesystem, p string) (bool, error) {
	info, err := fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over p, so readers never observe a partially written document.
func writeFileAtomic(fs billy.Filesystem, p string, data []byte) error {
	dir := filepath.Dir(p)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := fs.TempFile(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.Rename(tmpName, p); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// moveFile renames from to to, copying and removing when the rename crosses
// filesystems.
func moveFile(fs billy.Filesystem, from, to string) error {
	err := fs.Rename(from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	data, err := util.ReadFile(fs, from)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", from, err)
	}
	if err := writeFileAtomic(fs, to, data); err != nil {
		return err
	}
	if err := fs.Remove(from); err != nil {
		return fmt.Errorf("failed to remove %s: %w", from, err)
	}
	return nil
}

// encodeJSON marshals v without HTML escaping. Stored documents are compact;
// documents handed to an editor are indented.
func encodeJSON(v any, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if !indent {
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
	return buf.Bytes(), nil
}

// decodeJSON unmarshals a single JSON document keeping numbers as json.Number.
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}
