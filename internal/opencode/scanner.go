package opencode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrStorageNotFound is returned when the storage root does not exist.
var ErrStorageNotFound = errors.New("opencode: storage directory not found")

// FileInfo pairs a usage-part path with its modification time, used for
// windowed scans and cache invalidation.
type FileInfo struct {
	Path     string
	Modified time.Time
}

// Scanner enumerates usage-part files under the OpenCode storage root.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at path. The root must exist;
// everything below it may come and go between scans.
func NewScanner(root string) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStorageNotFound, root)
		}
		return nil, fmt.Errorf("opencode: stat storage root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStorageNotFound, root)
	}
	return &Scanner{root: root}, nil
}

// DefaultScanner creates a scanner at the default storage root.
func DefaultScanner() (*Scanner, error) {
	return NewScanner(DefaultStorageRoot())
}

func (s *Scanner) Root() string { return s.root }

// Scan returns every .json file under the root, at any depth, in no
// particular order. Unreadable entries below the root are skipped.
func (s *Scanner) Scan() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return fmt.Errorf("opencode: walk storage root: %w", err)
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ScanWithMetadata is Scan plus each file's modification time. Files
// whose metadata cannot be read are skipped.
func (s *Scanner) ScanWithMetadata() ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.root {
				return fmt.Errorf("opencode: walk storage root: %w", err)
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Path: path, Modified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ScanModifiedSince returns only files modified at or after cutoff,
// skipping older files during the walk.
func (s *Scanner) ScanModifiedSince(cutoff time.Time) ([]FileInfo, error) {
	all, err := s.ScanWithMetadata()
	if err != nil {
		return nil, err
	}
	var recent []FileInfo
	for _, f := range all {
		if !f.Modified.Before(cutoff) {
			recent = append(recent, f)
		}
	}
	return recent, nil
}
