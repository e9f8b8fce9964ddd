package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/soundfetch/soundfetch/internal/cover"
	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/ytdlp"
)

// VideoClient is the part of the yt-dlp client the adapter drives.
type VideoClient interface {
	CheckInstalled(ctx context.Context) error
	GetInfo(ctx context.Context, url string) (*ytdlp.Info, error)
	Download(ctx context.Context, url string, opts ytdlp.DownloadOptions) error
}

// YouTube downloads video-platform audio through yt-dlp. The extraction
// itself embeds metadata and a thumbnail into the MP3, but a standalone
// square cover is still produced through the cover processor, because the
// embedded thumbnail cannot be re-used for tagging afterwards.
type YouTube struct {
	client VideoClient
	covers *cover.Processor
}

func NewYouTube(client VideoClient, covers *cover.Processor) *YouTube {
	return &YouTube{client: client, covers: covers}
}

func (a *YouTube) FetchAssets(ctx context.Context, trackURL, dir string) (domain.TrackDescriptor, domain.RawAssets, error) {
	if err := a.client.CheckInstalled(ctx); err != nil {
		return domain.TrackDescriptor{}, domain.RawAssets{},
			fmt.Errorf("%w: yt-dlp and ffmpeg must be installed and reachable: %v", ErrToolchainUnavailable, err)
	}

	info, err := a.client.GetInfo(ctx, trackURL)
	if err != nil {
		return domain.TrackDescriptor{}, domain.RawAssets{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	if info.IsPlaylist() {
		return domain.TrackDescriptor{}, domain.RawAssets{},
			fmt.Errorf("%w: playlists are not supported", ErrUnsupportedContent)
	}

	// the platform has no "<artist> - <title>" convention, so no username
	// is surfaced and default names fall back to the bare title
	descriptor := domain.TrackDescriptor{
		Title:      info.Title,
		Duration:   int64(info.Duration * 1000),
		ArtworkURL: info.Thumbnail,
	}

	slog.Info("Fetching YouTube assets", "video", info.ID, "title", info.Title)

	audioPath := filepath.Join(dir, "audio_"+info.ID+".mp3")

	var coverPath string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.client.Download(gctx, trackURL, ytdlp.DownloadOptions{
			Format:         "bestaudio/best",
			AudioFormat:    "mp3",
			AudioQuality:   "0",
			OutputPath:     audioPath,
			ExtractAudio:   true,
			EmbedMetadata:  true,
			EmbedThumbnail: true,
			NoPlaylist:     true,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
		}
		return nil
	})
	g.Go(func() error {
		if info.Thumbnail == "" {
			return fmt.Errorf("%w: no thumbnail found for video", ErrCoverProcessingFailed)
		}
		path, err := a.covers.Prepare(gctx, info.Thumbnail, dir)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCoverProcessingFailed, err)
		}
		coverPath = path
		return nil
	})

	if err := g.Wait(); err != nil {
		return descriptor, domain.RawAssets{}, err
	}

	return descriptor, domain.RawAssets{AudioPath: audioPath, CoverPath: coverPath}, nil
}
