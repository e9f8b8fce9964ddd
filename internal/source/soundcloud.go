package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/soundcloud"
)

// TrackClient is the part of the SoundCloud API client the adapter drives.
type TrackClient interface {
	ResolveTrack(ctx context.Context, trackURL string) (*soundcloud.Track, error)
	DownloadAudio(ctx context.Context, track *soundcloud.Track, dir string, progress func(received, total int64)) (string, error)
	DownloadArtwork(ctx context.Context, track *soundcloud.Track, dir string) (string, error)
}

// SoundCloud is the default adapter: it resolves the track via the api-v2
// client and downloads the audio stream and artwork concurrently.
type SoundCloud struct {
	client   TrackClient
	progress Progress
}

func NewSoundCloud(client TrackClient) *SoundCloud {
	return &SoundCloud{client: client}
}

// WithProgress attaches a byte-level progress callback to audio downloads.
func (a *SoundCloud) WithProgress(progress Progress) *SoundCloud {
	a.progress = progress
	return a
}

func (a *SoundCloud) FetchAssets(ctx context.Context, trackURL, dir string) (domain.TrackDescriptor, domain.RawAssets, error) {
	track, err := a.client.ResolveTrack(ctx, trackURL)
	if err != nil {
		return domain.TrackDescriptor{}, domain.RawAssets{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	descriptor := domain.TrackDescriptor{
		ID:           track.ID,
		Username:     track.User.Username,
		Title:        track.Title,
		ArtworkURL:   track.ArtworkURL,
		PermalinkURL: track.PermalinkURL,
		Duration:     track.Duration,
	}

	slog.Info("Fetching SoundCloud assets", "track", track.ID, "title", track.Title)

	var assets domain.RawAssets

	// audio and artwork land concurrently; losing either is fatal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := a.client.DownloadAudio(gctx, track, dir, a.progress)
		if err != nil {
			return err
		}
		assets.AudioPath = path
		return nil
	})
	g.Go(func() error {
		path, err := a.client.DownloadArtwork(gctx, track, dir)
		if err != nil {
			return err
		}
		assets.CoverPath = path
		return nil
	})

	if err := g.Wait(); err != nil {
		return descriptor, domain.RawAssets{}, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	return descriptor, assets, nil
}
