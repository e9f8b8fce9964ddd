// Package cover turns remote thumbnails into square PNG cover art suitable
// for ID3 embedding.
package cover

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // thumbnail decoder
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // thumbnail decoder
)

const (
	// DefaultSize is the target square side for cover art.
	DefaultSize = 512

	// FileName is the cover file written into the working folder.
	FileName = "cover.png"
)

var (
	ErrFetchFailed     = fmt.Errorf("failed to fetch thumbnail")
	ErrUnreadableImage = fmt.Errorf("unable to read image dimensions")
)

// Processor fetches and shapes thumbnails.
type Processor struct {
	httpClient *http.Client
	size       int
}

func NewProcessor() *Processor {
	return &Processor{
		httpClient: &http.Client{Timeout: time.Minute},
		size:       DefaultSize,
	}
}

// Prepare fetches the thumbnail, crops it to a centered square, resizes it
// to the target size when large enough, and writes it as cover.png inside
// dir. It returns the written path.
func (p *Processor) Prepare(ctx context.Context, thumbnailURL, dir string) (string, error) {
	data, err := p.fetch(ctx, thumbnailURL)
	if err != nil {
		return "", err
	}

	squared, err := cropCenterSquare(data)
	if err != nil {
		return "", err
	}

	final, err := resizeSquare(squared, p.size)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(dir, FileName)
	if err := os.WriteFile(outputPath, final, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}

	return outputPath, nil
}

func (p *Processor) fetch(ctx context.Context, thumbnailURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return buf.Bytes(), nil
}

// cropCenterSquare crops the image to a centered square with side
// min(width, height) and re-encodes it as PNG.
func cropCenterSquare(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	side := min(width, height)
	left := bounds.Min.X + (width-side)/2
	top := bounds.Min.Y + (height-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Copy(dst, image.Point{}, img, image.Rect(left, top, left+side, top+side), draw.Src, nil)

	return encodePNG(dst)
}

// resizeSquare scales a square image down to size x size. Images smaller
// than the target pass through byte-identical; covers are never upscaled.
func resizeSquare(data []byte, size int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	if img.Bounds().Dx() < size {
		return data, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	return encodePNG(dst)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
