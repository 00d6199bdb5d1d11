package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Artifact names written on a fatal stop
const (
	DebugHTMLName = "debug.html"
	DebugPNGName  = "debug.png"
)

// DiagnosticsWriter saves the page that stopped a crawl into a directory.
// Earlier artifacts are overwritten.
type DiagnosticsWriter struct {
	dir string
}

// NewDiagnosticsWriter creates a writer storing artifacts in dir
func NewDiagnosticsWriter(dir string) *DiagnosticsWriter {
	return &DiagnosticsWriter{dir: dir}
}

// HTMLPath returns the page source artifact path
func (w *DiagnosticsWriter) HTMLPath() string {
	return filepath.Join(w.dir, DebugHTMLName)
}

// SnapshotPath returns the visual snapshot artifact path
func (w *DiagnosticsWriter) SnapshotPath() string {
	return filepath.Join(w.dir, DebugPNGName)
}

// SaveDiagnostics writes the page source and, when present, the snapshot.
// Without a snapshot an older one is removed so the pair stays consistent.
func (w *DiagnosticsWriter) SaveDiagnostics(pageSource string, snapshot []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create diagnostics directory: %w", err)
	}

	if err := os.WriteFile(w.HTMLPath(), []byte(pageSource), 0o644); err != nil {
		return fmt.Errorf("failed to write page source: %w", err)
	}

	if snapshot == nil {
		if err := os.Remove(w.SnapshotPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove stale snapshot: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(w.SnapshotPath(), snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
