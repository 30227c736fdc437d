// Package fsio is the filesystem adapter: all artifact reads and writes go
// through it, confined to a single workspace root.
package fsio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Adapter reads and writes files under a workspace root. Paths outside the
// root are rejected.
type Adapter struct {
	root string
}

// NewAdapter creates an adapter rooted at the given directory.
func NewAdapter(root string) (*Adapter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Adapter{root: abs}, nil
}

// Root returns the absolute workspace root.
func (a *Adapter) Root() string { return a.root }

// Abs resolves a workspace-relative (or absolute) path and verifies it stays
// inside the root.
func (a *Adapter) Abs(path string) (string, error) {
	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(a.root, p)
	}
	p = filepath.Clean(p)
	if p != a.root && !strings.HasPrefix(p, a.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s escapes workspace root %s", path, a.root)
	}
	return p, nil
}

// Write stores text at path, creating parent directories as needed.
func (a *Adapter) Write(path, text string) error {
	abs, err := a.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(abs, []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", abs, err)
	}
	return nil
}

// Read returns the text stored at path.
func (a *Adapter) Read(path string) (string, error) {
	abs, err := a.Abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", abs, err)
	}
	return string(data), nil
}
