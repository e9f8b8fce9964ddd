// Package storage archives finalized tracks to a configured backend.
// Archival is optional and sits outside the caller-facing contract: the
// working folder remains the authoritative location of the file.
package storage

import (
	"context"
	"fmt"

	"github.com/soundfetch/soundfetch/config"
)

// Archiver stores a copy of a finalized track and returns where it ended up.
type Archiver interface {
	Archive(ctx context.Context, localPath string) (string, error)
}

// New builds the archiver described by the configuration. A "none" type
// yields a nil Archiver, meaning archival is disabled.
func New(ctx context.Context, cfg config.ArchiveConfig) (Archiver, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalArchiver(cfg.OutputDir)
	case "gcs":
		return NewGCSArchiver(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
