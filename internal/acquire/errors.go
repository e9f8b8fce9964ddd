package acquire

import (
	"errors"
	"fmt"

	"github.com/soundfetch/soundfetch/internal/audio"
	"github.com/soundfetch/soundfetch/internal/source"
	"github.com/soundfetch/soundfetch/internal/tag"
)

// Kind classifies a pipeline failure by the stage that produced it, so
// callers can map it onto their own surface without string matching.
type Kind string

const (
	KindInvalidRequest         Kind = "invalid_request"
	KindSourceResolutionFailed Kind = "source_resolution_failed"
	KindUnsupportedContent     Kind = "unsupported_content"
	KindToolchainUnavailable   Kind = "toolchain_unavailable"
	KindDownloadFailed         Kind = "download_failed"
	KindTranscodeFailed        Kind = "transcode_failed"
	KindCoverProcessingFailed  Kind = "cover_processing_failed"
	KindTagWriteFailed         Kind = "tag_write_failed"
	KindInternal               Kind = "internal"
)

// Error is the failure type returned by the pipeline. Folder names the
// working folder created for the request, when one exists; the caller
// owns its reclamation.
type Error struct {
	Kind   Kind
	Folder string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, folder string, err error) *Error {
	return &Error{Kind: kind, Folder: folder, Err: err}
}

// classify maps an adapter or stage error onto its kind by sentinel.
func classify(err error) Kind {
	switch {
	case errors.Is(err, source.ErrResolutionFailed):
		return KindSourceResolutionFailed
	case errors.Is(err, source.ErrUnsupportedContent):
		return KindUnsupportedContent
	case errors.Is(err, source.ErrToolchainUnavailable):
		return KindToolchainUnavailable
	case errors.Is(err, source.ErrDownloadFailed):
		return KindDownloadFailed
	case errors.Is(err, source.ErrCoverProcessingFailed):
		return KindCoverProcessingFailed
	case errors.Is(err, audio.ErrTranscodeFailed):
		return KindTranscodeFailed
	case errors.Is(err, tag.ErrWriteFailed):
		return KindTagWriteFailed
	default:
		return KindInternal
	}
}

// KindOf extracts the kind from a pipeline error, or KindInternal when the
// error did not come from the pipeline.
func KindOf(err error) Kind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return KindInternal
}

// FolderOf extracts the working folder recorded on a pipeline error, if any.
func FolderOf(err error) string {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Folder
	}
	return ""
}
