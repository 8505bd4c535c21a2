// Package archive bundles receipt artifacts into the final zip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"orderbot/services/receipts"
)

// ArchiveError means the final bundle could not be produced. A run
// with successful orders but no archive is a reportable failure.
type ArchiveError struct {
	Path  string
	Cause error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("failed to archive receipts to %s: %v", e.Path, e.Cause)
}

func (e *ArchiveError) Unwrap() error { return e.Cause }

// Bundler adapts Zip to the pipeline's archiver interface.
type Bundler struct{}

func (Bundler) Archive(artifacts []receipts.Artifact, outputPath string) error {
	return Zip(artifacts, outputPath)
}

// Zip packs every artifact file into one compressed bundle at
// outputPath, then deletes the now-redundant per-order files. The
// bundle is written to a temporary name and renamed into place so a
// failure never leaves a partial archive behind.
func Zip(artifacts []receipts.Artifact, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return &ArchiveError{Path: outputPath, Cause: err}
	}

	partial := outputPath + ".partial"
	if err := writeZip(artifacts, partial); err != nil {
		os.Remove(partial)
		return &ArchiveError{Path: outputPath, Cause: err}
	}
	if err := os.Rename(partial, outputPath); err != nil {
		os.Remove(partial)
		return &ArchiveError{Path: outputPath, Cause: err}
	}

	for _, artifact := range artifacts {
		if err := os.Remove(artifact.Path); err != nil {
			slog.Warn("failed to remove archived receipt", "path", artifact.Path, "err", err)
		}
	}

	slog.Info("receipts archived", "path", outputPath, "count", len(artifacts))
	return nil
}

func writeZip(artifacts []receipts.Artifact, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, artifact := range artifacts {
		if err := addFile(zw, artifact.Path); err != nil {
			zw.Close()
			return fmt.Errorf("add %s: %w", artifact.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Close()
}

func addFile(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	// entries are keyed by order number through the file name
	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
