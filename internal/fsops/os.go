package fsops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// OS implements FS on the local filesystem.
type OS struct {
	Log Logger
}

// NewOS returns an OS filesystem that logs failures to log.
func NewOS(log Logger) *OS {
	return &OS{Log: log}
}

// Exists reports whether anything (file, directory, symlink) is at path.
func (o *OS) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// EnsureDir creates path and its parents if needed.
func (o *OS) EnsureDir(path string) bool {
	if err := os.MkdirAll(path, 0o755); err != nil {
		o.Log.Error("Cannot create directory %s: %v", path, err)
		return false
	}
	return true
}

// Rename moves src to dst, replacing dst if present. Moves across devices
// fall back to copy-then-remove.
func (o *OS) Rename(src, dst string) bool {
	err := os.Rename(src, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, syscall.EXDEV) {
		o.Log.Error("Rename %s -> %s failed: %v", src, dst, err)
		return false
	}
	if err := copyFile(src, dst); err != nil {
		o.Log.Error("Cross-device move %s -> %s failed: %v", src, dst, err)
		return false
	}
	if err := os.Remove(src); err != nil {
		o.Log.Error("Cross-device move left source behind %s: %v", src, err)
		return false
	}
	return true
}

// Copy duplicates src at dst, replacing dst if present.
func (o *OS) Copy(src, dst string) bool {
	if err := copyFile(src, dst); err != nil {
		o.Log.Error("Copy %s -> %s failed: %v", src, dst, err)
		return false
	}
	return true
}

// CreateTime returns the birth time of path where the platform records it,
// otherwise its modification time.
func (o *OS) CreateTime(path string) (time.Time, error) {
	if t, ok := birthTime(path); ok {
		return t, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// SameFile reports whether a and b name the same file on disk.
func (o *OS) SameFile(a, b string) bool {
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

// copyFile writes src to a temporary file beside dst and renames it into
// place, so a failed copy never leaves a truncated dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(fi.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(tmpName, fi.ModTime(), fi.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
