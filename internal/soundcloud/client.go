// Package soundcloud implements a client for the SoundCloud api-v2 endpoints
// the acquisition pipeline needs: track resolution, user lookups and raw
// asset downloads.
package soundcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultAPIBaseURL = "https://api-v2.soundcloud.com"
	defaultWebBaseURL = "https://soundcloud.com"

	// browser UA: SoundCloud serves different asset bundles to unknown agents
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

	downloadTimeout = 30 * time.Minute
)

var (
	ErrNotFound   = fmt.Errorf("not found")
	ErrNoClientID = fmt.Errorf("no client id available")
	ErrNoStream   = fmt.Errorf("no progressive stream available")
	ErrNoArtwork  = fmt.Errorf("no artwork available")
)

var clientIDPattern = regexp.MustCompile(`client_id\s*:\s*"([a-zA-Z0-9]+)"`)

// Client talks to the SoundCloud api-v2. The zero client id is resolved
// lazily by scraping the web app's script bundles, the same way scdl and
// friends obtain theirs.
type Client struct {
	httpClient *http.Client
	apiBaseURL string
	webBaseURL string

	mu       sync.Mutex
	clientID string
}

func NewClient(clientID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: downloadTimeout},
		apiBaseURL: defaultAPIBaseURL,
		webBaseURL: defaultWebBaseURL,
		clientID:   clientID,
	}
}

// ResolveTrack resolves a track page URL to its descriptor.
func (c *Client) ResolveTrack(ctx context.Context, trackURL string) (*Track, error) {
	clientID, err := c.ensureClientID(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/resolve?url=%s&client_id=%s",
		c.apiBaseURL, url.QueryEscape(trackURL), clientID)

	var track Track
	if err := c.getJSON(ctx, endpoint, &track); err != nil {
		return nil, fmt.Errorf("failed to resolve track %s: %w", trackURL, err)
	}

	if track.Kind != "" && track.Kind != "track" {
		return nil, fmt.Errorf("%w: %s resolved to a %s, not a track", ErrNotFound, trackURL, track.Kind)
	}

	return &track, nil
}

// GetUser fetches a user by numeric id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	clientID, err := c.ensureClientID(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/users/%s?client_id=%s", c.apiBaseURL, url.PathEscape(userID), clientID)

	var user User
	if err := c.getJSON(ctx, endpoint, &user); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}

	return &user, nil
}

// GetUserLikes fetches up to limit of a user's liked tracks.
func (c *Client) GetUserLikes(ctx context.Context, userID int64, limit int) ([]Track, error) {
	clientID, err := c.ensureClientID(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	endpoint := fmt.Sprintf("%s/users/%d/track_likes?limit=%d&client_id=%s",
		c.apiBaseURL, userID, limit, clientID)

	var page likesPage
	if err := c.getJSON(ctx, endpoint, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch likes for user %d: %w", userID, err)
	}

	tracks := make([]Track, 0, len(page.Collection))
	for _, item := range page.Collection {
		if item.Track != nil {
			tracks = append(tracks, *item.Track)
		}
	}

	return tracks, nil
}

// DownloadAudio downloads the track's progressive stream into dir and
// returns the file path. The progress callback, if non-nil, receives the
// running byte count and the total size (-1 when unknown).
func (c *Client) DownloadAudio(ctx context.Context, track *Track, dir string, progress func(received, total int64)) (string, error) {
	clientID, err := c.ensureClientID(ctx)
	if err != nil {
		return "", err
	}

	transcoding := pickProgressive(track.Media.Transcodings)
	if transcoding == nil {
		return "", fmt.Errorf("%w: track %d", ErrNoStream, track.ID)
	}

	// The transcoding URL is an indirection; it returns the CDN location.
	sep := "?"
	if strings.Contains(transcoding.URL, "?") {
		sep = "&"
	}
	var location streamLocation
	if err := c.getJSON(ctx, transcoding.URL+sep+"client_id="+clientID, &location); err != nil {
		return "", fmt.Errorf("failed to locate stream for track %d: %w", track.ID, err)
	}

	// the orchestrator renames to the display name afterwards
	name := fmt.Sprintf("audio_%d", track.ID)
	outputPath := filepath.Join(dir, name+extensionFromURL(location.URL, ".mp3"))

	if err := c.downloadFile(ctx, location.URL, outputPath, progress); err != nil {
		return "", fmt.Errorf("failed to download audio for track %d: %w", track.ID, err)
	}

	slog.Info("Downloaded SoundCloud audio", "track", track.ID, "path", outputPath)
	return outputPath, nil
}

// DownloadArtwork downloads the track's cover image into dir at the largest
// available size and returns the file path.
func (c *Client) DownloadArtwork(ctx context.Context, track *Track, dir string) (string, error) {
	artworkURL := track.ArtworkURL
	if artworkURL == "" {
		artworkURL = track.User.AvatarURL
	}
	if artworkURL == "" {
		return "", fmt.Errorf("%w: track %d", ErrNoArtwork, track.ID)
	}

	// api-v2 hands out the 100x100 variant; the t500x500 one always exists
	artworkURL = strings.Replace(artworkURL, "-large.", "-t500x500.", 1)

	outputPath := filepath.Join(dir, "artwork"+extensionFromURL(artworkURL, ".jpg"))
	if err := c.downloadFile(ctx, artworkURL, outputPath, nil); err != nil {
		return "", fmt.Errorf("failed to download artwork for track %d: %w", track.ID, err)
	}

	slog.Info("Downloaded SoundCloud artwork", "track", track.ID, "path", outputPath)
	return outputPath, nil
}

// ensureClientID returns the configured client id, discovering one from the
// web app's script bundles on first use.
func (c *Client) ensureClientID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientID != "" {
		return c.clientID, nil
	}

	id, err := c.discoverClientID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoClientID, err)
	}

	slog.Info("Discovered SoundCloud client id")
	c.clientID = id
	return id, nil
}

// discoverClientID scrapes the SoundCloud homepage for its script bundles
// and extracts the client id embedded in one of them.
func (c *Client) discoverClientID(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.webBaseURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("failed to parse homepage: %w", err)
	}

	var scriptURLs []string
	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			scriptURLs = append(scriptURLs, src)
		}
	})

	// The id lives in one of the later app bundles; walk them backwards.
	for i := len(scriptURLs) - 1; i >= 0; i-- {
		script, err := c.get(ctx, scriptURLs[i])
		if err != nil {
			continue
		}

		data, err := io.ReadAll(script)
		script.Close()
		if err != nil {
			continue
		}

		if match := clientIDPattern.FindSubmatch(data); match != nil {
			return string(match[1]), nil
		}
	}

	return "", fmt.Errorf("client id not present in %d scripts", len(scriptURLs))
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer body.Close()

	return json.NewDecoder(body).Decode(out)
}

func (c *Client) downloadFile(ctx context.Context, rawURL, outputPath string, progress func(received, total int64)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	}

	written, err := io.Copy(outFile, reader)
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	if written == 0 {
		return fmt.Errorf("downloaded file is empty")
	}

	return nil
}

// pickProgressive selects the progressive (plain HTTP) transcoding; HLS
// variants need a separate playlist fetch and are skipped.
func pickProgressive(transcodings []Transcoding) *Transcoding {
	for i := range transcodings {
		if transcodings[i].Format.Protocol == "progressive" {
			return &transcodings[i]
		}
	}
	return nil
}

// extensionFromURL extracts a file extension from a URL path, falling back
// to def when the path has none.
func extensionFromURL(rawURL, def string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return def
	}
	if ext := path.Ext(u.Path); ext != "" {
		return ext
	}
	return def
}

// progressReader reports the running byte count to a callback as it reads.
type progressReader struct {
	r        io.Reader
	total    int64
	received int64
	report   func(received, total int64)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.received += int64(n)
	p.report(p.received, p.total)
	return n, err
}
