package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundfetch/soundfetch/internal/acquire"
	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/workdir"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAcquirer struct {
	track domain.FinalizedTrack
	err   error
}

func (f *fakeAcquirer) Acquire(_ context.Context, _ domain.TrackRequest) (domain.FinalizedTrack, error) {
	return f.track, f.err
}

func newTestServer(acquirer Acquirer, janitorDelay time.Duration) *Server {
	return New(acquirer, workdir.NewJanitor(janitorDelay), nil, nil, nil)
}

func postDownload(t *testing.T, srv *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/download", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestDownloadTrack(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "track_deadbeef")
	require.NoError(t, os.MkdirAll(folder, 0755))
	audioPath := filepath.Join(folder, "Artist - Song.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("mp3data"), 0644))

	acquirer := &fakeAcquirer{track: domain.FinalizedTrack{AudioPath: audioPath, Folder: folder}}
	srv := newTestServer(acquirer, 10*time.Millisecond)

	w := postDownload(t, srv, gin.H{"url": "https://soundcloud.com/artist/song"})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Artist - Song.mp3")
	assert.Equal(t, "mp3data", w.Body.String())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(folder)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond, "working folder should be removed after streaming")
}

func TestDownloadTrackMissingURL(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	w := postDownload(t, srv, gin.H{"name": "Artist - Song"})

	assert.Equal(t, 400, w.Code)
}

func TestDownloadTrackErrorStatus(t *testing.T) {
	testCases := []struct {
		kind     acquire.Kind
		expected int
	}{
		{acquire.KindInvalidRequest, 400},
		{acquire.KindUnsupportedContent, 422},
		{acquire.KindSourceResolutionFailed, 404},
		{acquire.KindToolchainUnavailable, 503},
		{acquire.KindDownloadFailed, 500},
		{acquire.KindTranscodeFailed, 500},
		{acquire.KindTagWriteFailed, 500},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			acquirer := &fakeAcquirer{err: &acquire.Error{Kind: tc.kind, Err: fmt.Errorf("boom")}}
			srv := newTestServer(acquirer, time.Minute)

			w := postDownload(t, srv, gin.H{"url": "https://soundcloud.com/artist/song"})

			assert.Equal(t, tc.expected, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tc.kind), resp.Kind)
		})
	}
}

func TestDownloadTrackCleansFolderOnError(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "track_cafebabe")
	require.NoError(t, os.MkdirAll(folder, 0755))

	acquirer := &fakeAcquirer{err: &acquire.Error{
		Kind:   acquire.KindTranscodeFailed,
		Folder: folder,
		Err:    fmt.Errorf("corrupt input"),
	}}
	srv := newTestServer(acquirer, 10*time.Millisecond)

	w := postDownload(t, srv, gin.H{"url": "https://soundcloud.com/artist/song"})

	assert.Equal(t, 500, w.Code)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(folder)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond, "working folder should be removed after a failed request")
}

func TestLookupEndpointsRequireURL(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	for _, path := range []string{"/api/soundcloud/tracks", "/api/youtube/tracks"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, path)
	}
}

func TestGetUserRequiresID(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	req := httptest.NewRequest("GET", "/api/users", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, 400, w.Code)
}

func TestGetFavoritesValidatesParams(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	for _, target := range []string{"/api/favorites", "/api/favorites?userId=abc", "/api/favorites?userId=1&limit=0"} {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, target)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&fakeAcquirer{}, time.Minute)

	req := httptest.NewRequest(http.MethodOptions, "/api/download", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
