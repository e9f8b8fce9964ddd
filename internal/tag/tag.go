// Package tag writes ID3v2 metadata and cover art onto finalized MP3 files.
package tag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/google/uuid"

	"github.com/soundfetch/soundfetch/internal/domain"
)

const lyricsLanguage = "eng"

// Sibling cover lookup order, mirroring what the adapters may produce.
var imageExtensions = []string{".jpg", ".jpeg", ".png"}

var ErrWriteFailed = fmt.Errorf("failed to write tags")

// Tagger applies ID3v2 tags in place.
type Tagger struct{}

func NewTagger() *Tagger {
	return &Tagger{}
}

// Apply writes artist/title/album/lyrics frames onto the MP3 at audioPath,
// deriving artist and title from the display name. A sibling image sharing
// the audio's base name is embedded as the front cover when present; its
// absence is not an error. The write replaces existing tags on the file.
func (t *Tagger) Apply(audioPath, name, album, lyrics string) error {
	tag, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, audioPath, err)
	}
	defer tag.Close()

	artist, title := domain.SplitDisplayName(name)

	if artist != "" {
		tag.SetArtist(artist)
	}
	tag.SetTitle(title)

	if album == "" {
		album = domain.DefaultAlbum
	}
	tag.SetAlbum(album)

	tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
		Encoding:          id3v2.EncodingUTF8,
		Language:          lyricsLanguage,
		ContentDescriptor: "",
		Lyrics:            lyrics,
	})

	// random marker distinguishing repeated acquisitions of the same track
	tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, uuid.NewString())

	if coverPath, mime, ok := findCover(audioPath); ok {
		picture, err := os.ReadFile(coverPath)
		if err != nil {
			return fmt.Errorf("%w: reading cover %s: %v", ErrWriteFailed, coverPath, err)
		}

		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Track Cover",
			Picture:     picture,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, audioPath, err)
	}

	return nil
}

// findCover looks for an image file next to the audio sharing its base name,
// returning the path and MIME type of the first match.
func findCover(audioPath string) (path, mime string, ok bool) {
	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))

	for _, ext := range imageExtensions {
		candidate := base + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, mimeForExtension(ext), true
		}
	}

	return "", "", false
}

func mimeForExtension(ext string) string {
	if strings.EqualFold(ext, ".png") {
		return "image/png"
	}
	return "image/jpeg"
}
