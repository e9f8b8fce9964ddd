// Package domain holds the core types of the acquisition pipeline and the
// pure naming rules applied to them.
package domain

// TrackRequest is the immutable input to an acquisition.
type TrackRequest struct {
	SourceURL   string `json:"url" binding:"required"`
	DisplayName string `json:"name,omitempty"`
	Album       string `json:"album,omitempty"`
	Lyrics      string `json:"lyrics,omitempty"`
}

// TrackDescriptor is the resolved identity of a remote track. It is used to
// compute the default display name when the request does not carry one.
type TrackDescriptor struct {
	ID           int64  `json:"id,omitempty"`
	Username     string `json:"user"`
	Title        string `json:"title"`
	ArtworkURL   string `json:"artwork_url,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	Duration     int64  `json:"duration,omitempty"`
}

// RawAssets are the not-yet-finalized files an adapter produced inside a
// working folder. Extensions are whatever the platform delivered; CoverPath
// may be empty when no artwork was available.
type RawAssets struct {
	AudioPath string
	CoverPath string
}

// FinalizedTrack is the pipeline result: a tagged MP3 named after the display
// name, plus the working folder that owns it. The caller is responsible for
// reclaiming the folder once the file has been consumed.
type FinalizedTrack struct {
	AudioPath string `json:"path"`
	Folder    string `json:"folder"`
}
