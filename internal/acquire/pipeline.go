// Package acquire orchestrates the track acquisition pipeline: resolve the
// source, download raw assets, normalize the audio to MP3, rename by
// display name and write the metadata tags. Every call gets its own
// working folder; the caller decides when it is reclaimed.
package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/source"
	"github.com/soundfetch/soundfetch/internal/storage"
	"github.com/soundfetch/soundfetch/internal/workdir"
)

// Normalizer converts a downloaded audio file to MP3 in place and returns
// the path of the resulting file.
type Normalizer interface {
	EnsureMP3(ctx context.Context, inputPath string) (string, error)
}

// Tagger writes the ID3 metadata and embedded artwork onto a finalized file.
type Tagger interface {
	Apply(audioPath, name, album, lyrics string) error
}

// Pipeline wires the acquisition stages together.
type Pipeline struct {
	baseDir    string
	soundcloud source.Adapter
	youtube    source.Adapter
	normalizer Normalizer
	tagger     Tagger
	archiver   storage.Archiver
	logger     *slog.Logger
}

func NewPipeline(
	baseDir string,
	soundcloud, youtube source.Adapter,
	normalizer Normalizer,
	tagger Tagger,
	archiver storage.Archiver,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		baseDir:    baseDir,
		soundcloud: soundcloud,
		youtube:    youtube,
		normalizer: normalizer,
		tagger:     tagger,
		archiver:   archiver,
		logger:     logger,
	}
}

// Acquire runs the full pipeline for one track URL. On success the returned
// track names both the finalized MP3 and the working folder that contains
// it. On failure the working folder, when one was created, is left in place
// and recorded on the returned *Error so the caller can reclaim it.
func (p *Pipeline) Acquire(ctx context.Context, req domain.TrackRequest) (domain.FinalizedTrack, error) {
	trackURL := strings.TrimSpace(req.SourceURL)
	if trackURL == "" {
		return domain.FinalizedTrack{}, newError(KindInvalidRequest, "", fmt.Errorf("track URL is required"))
	}

	folder, err := workdir.New(p.baseDir)
	if err != nil {
		return domain.FinalizedTrack{}, newError(KindInternal, "", fmt.Errorf("failed to create working folder: %w", err))
	}

	p.logger.Info("acquiring track", "url", trackURL, "folder", folder)

	adapter := p.soundcloud
	if source.IsYouTubeURL(trackURL) {
		adapter = p.youtube
	}

	desc, assets, err := adapter.FetchAssets(ctx, trackURL, folder)
	if err != nil {
		return domain.FinalizedTrack{}, newError(classify(err), folder, err)
	}

	audioPath, err := p.normalizer.EnsureMP3(ctx, assets.AudioPath)
	if err != nil {
		return domain.FinalizedTrack{}, newError(classify(err), folder, err)
	}

	name := domain.DisplayName(req, desc)
	finalAudio, err := p.renameAssets(folder, name, audioPath, assets.CoverPath)
	if err != nil {
		return domain.FinalizedTrack{}, newError(KindInternal, folder, err)
	}

	if err := p.tagger.Apply(finalAudio, name, req.Album, req.Lyrics); err != nil {
		return domain.FinalizedTrack{}, newError(classify(err), folder, err)
	}

	if p.archiver != nil {
		if archivedPath, err := p.archiver.Archive(ctx, finalAudio); err != nil {
			p.logger.Warn("failed to archive track", "path", finalAudio, "error", err)
		} else {
			p.logger.Info("archived track", "path", archivedPath)
		}
	}

	p.logger.Info("track ready", "path", finalAudio)

	return domain.FinalizedTrack{AudioPath: finalAudio, Folder: folder}, nil
}

// renameAssets moves the audio and cover files onto the display name,
// keeping each file's extension. The two renames are independent.
func (p *Pipeline) renameAssets(folder, name, audioPath, coverPath string) (string, error) {
	base := sanitizeFileName(name)
	finalAudio := filepath.Join(folder, base+filepath.Ext(audioPath))

	g := new(errgroup.Group)
	g.Go(func() error {
		if err := os.Rename(audioPath, finalAudio); err != nil {
			return fmt.Errorf("failed to rename audio file: %w", err)
		}
		return nil
	})
	if coverPath != "" {
		finalCover := filepath.Join(folder, base+filepath.Ext(coverPath))
		g.Go(func() error {
			if err := os.Rename(coverPath, finalCover); err != nil {
				return fmt.Errorf("failed to rename cover file: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return finalAudio, nil
}

// sanitizeFileName strips characters that cannot appear in a file name on
// common filesystems. The display name used for tagging is not affected.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\x00", "",
	)
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		cleaned = "track"
	}
	return cleaned
}
