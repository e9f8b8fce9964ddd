// Package source provides the platform adapters that resolve a track URL
// and download its raw assets into a working folder.
package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/soundfetch/soundfetch/internal/domain"
)

// Error kinds shared by the adapters; the orchestrator classifies adapter
// failures by these sentinels.
var (
	ErrResolutionFailed      = fmt.Errorf("source resolution failed")
	ErrUnsupportedContent    = fmt.Errorf("unsupported content")
	ErrToolchainUnavailable  = fmt.Errorf("toolchain unavailable")
	ErrDownloadFailed        = fmt.Errorf("download failed")
	ErrCoverProcessingFailed = fmt.Errorf("cover processing failed")
)

// Progress receives the running byte count of an audio download; total is
// -1 when the remote does not announce a size.
type Progress func(received, total int64)

// Adapter resolves a URL to a track descriptor and downloads its raw audio
// and cover assets into dir. The descriptor is returned even when the
// caller already knows what to call the track, since default names are
// derived from it.
type Adapter interface {
	FetchAssets(ctx context.Context, trackURL, dir string) (domain.TrackDescriptor, domain.RawAssets, error)
}

var youtubeHosts = []string{
	"youtube.com",
	"youtu.be",
	"music.youtube.com",
}

// IsYouTubeURL reports whether the URL points at a YouTube-style host.
// Anything else is routed to the default adapter; unknown domains are not
// rejected here.
func IsYouTubeURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, h := range youtubeHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
