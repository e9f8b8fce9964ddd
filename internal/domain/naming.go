package domain

import "strings"

// DefaultAlbum is the album tag applied when a request does not specify one.
const DefaultAlbum = "Music"

const nameSeparator = " - "

// DisplayName returns the name the finalized track will carry. A name
// supplied on the request wins; otherwise it is derived from the descriptor
// as "<username> - <title>", or just the title when the platform has no
// username for the track.
func DisplayName(req TrackRequest, desc TrackDescriptor) string {
	if strings.TrimSpace(req.DisplayName) != "" {
		return strings.TrimSpace(req.DisplayName)
	}

	if strings.TrimSpace(desc.Username) == "" {
		return strings.TrimSpace(desc.Title)
	}

	return strings.TrimSpace(desc.Username + nameSeparator + desc.Title)
}

// SplitDisplayName splits a display name into artist and title on the first
// " - " separator. A name without the separator is treated as a bare title
// with no artist.
func SplitDisplayName(name string) (artist, title string) {
	before, after, found := strings.Cut(name, nameSeparator)
	if !found {
		return "", strings.TrimSpace(name)
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}
