package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsYouTubeURL(t *testing.T) {
	testCases := []struct {
		url      string
		expected bool
	}{
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://youtube.com/watch?v=abc123", true},
		{"https://youtu.be/abc123", true},
		{"https://youtu.be/abc123?si=xyz", true},
		{"https://music.youtube.com/watch?v=abc123", true},
		{"https://m.youtube.com/watch?v=abc123", true},
		{"https://soundcloud.com/artist/song", false},
		{"https://example.com/youtube.com", false},
		{"https://notyoutube.com/watch", false},
		{"", false},
		{"::not a url::", false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsYouTubeURL(tc.url))
		})
	}
}
