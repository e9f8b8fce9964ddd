package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalArchiver copies finalized tracks into a directory on disk.
type LocalArchiver struct {
	outputDir string
}

func NewLocalArchiver(outputDir string) (*LocalArchiver, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("local archive requires an output directory")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchiver{outputDir: outputDir}, nil
}

func (a *LocalArchiver) Archive(ctx context.Context, localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open track: %w", err)
	}
	defer src.Close()

	destPath := filepath.Join(a.outputDir, filepath.Base(localPath))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return "", fmt.Errorf("failed to copy track: %w", err)
	}

	return destPath, nil
}
