// Package archive packs one chunk of analysis files into a deflate zip held
// entirely in memory, the wire format the backend's bulk endpoints accept.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wardenhq/warden-analysis/internal/domain/analysis"
)

// Build writes the chunk's files into a single compressed archive, in chunk
// order, with their relative paths preserved. Any unreadable file fails the
// whole build and the buffer is discarded; callers never see partial output.
func Build(chunk analysis.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, file := range chunk.Files {
		if err := addFile(w, file.Path); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// addFile scopes the source handle so it is released on every exit path.
func addFile(w *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	entry, err := w.Create(filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", path, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	return nil
}
