package server

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soundfetch/soundfetch/internal/acquire"
	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/ytdlp"
)

// ErrorResponse is the JSON body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusForKind maps pipeline error kinds onto HTTP status codes.
func statusForKind(kind acquire.Kind) int {
	switch kind {
	case acquire.KindInvalidRequest:
		return 400
	case acquire.KindUnsupportedContent:
		return 422
	case acquire.KindSourceResolutionFailed:
		return 404
	case acquire.KindToolchainUnavailable:
		return 503
	default:
		return 500
	}
}

// downloadTrack runs the acquisition pipeline and streams the finalized
// MP3 back to the client. The working folder is removed a short while
// after the response finishes, so slow clients can still read the file.
func (s *Server) downloadTrack(c *gin.Context) {
	var req domain.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err), Kind: string(acquire.KindInvalidRequest)})
		return
	}

	track, err := s.acquirer.Acquire(c.Request.Context(), req)
	if err != nil {
		if folder := acquire.FolderOf(err); folder != "" {
			s.janitor.Schedule(folder)
		}
		kind := acquire.KindOf(err)
		s.logger.Error("acquisition failed", "url", req.SourceURL, "kind", kind, "error", err)
		c.JSON(statusForKind(kind), ErrorResponse{Error: err.Error(), Kind: string(kind)})
		return
	}

	c.Header("Content-Type", "audio/mpeg")
	c.FileAttachment(track.AudioPath, filepath.Base(track.AudioPath))

	s.janitor.Schedule(track.Folder)
}

func (s *Server) getSoundCloudTrack(c *gin.Context) {
	trackURL := c.Query("url")
	if trackURL == "" {
		c.JSON(400, ErrorResponse{Error: "url query parameter is required"})
		return
	}

	track, err := s.soundcloud.ResolveTrack(c.Request.Context(), trackURL)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(200, track)
}

func (s *Server) getYouTubeTrack(c *gin.Context) {
	videoURL := c.Query("url")
	if videoURL == "" {
		c.JSON(400, ErrorResponse{Error: "url query parameter is required"})
		return
	}

	if err := s.ytdlp.CheckInstalled(c.Request.Context()); err != nil {
		c.JSON(503, ErrorResponse{Error: err.Error()})
		return
	}

	info, err := s.ytdlp.GetInfo(c.Request.Context(), videoURL)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	if info.IsPlaylist() {
		c.JSON(422, ErrorResponse{Error: "playlist URLs are not supported, provide a single video"})
		return
	}

	c.JSON(200, descriptorFromInfo(info))
}

func (s *Server) getUser(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(400, ErrorResponse{Error: "userId query parameter is required"})
		return
	}

	user, err := s.soundcloud.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(200, user)
}

func (s *Server) getFavorites(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		c.JSON(400, ErrorResponse{Error: "userId query parameter must be a numeric id"})
		return
	}

	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		limit, err = strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			c.JSON(400, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
	}

	tracks, err := s.soundcloud.GetUserLikes(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(200, gin.H{"tracks": tracks, "count": len(tracks)})
}

func descriptorFromInfo(info *ytdlp.Info) domain.TrackDescriptor {
	username := info.Uploader
	if username == "" {
		username = info.Channel
	}
	return domain.TrackDescriptor{
		Username:     username,
		Title:        info.Title,
		ArtworkURL:   info.Thumbnail,
		PermalinkURL: info.WebpageURL,
		Duration:     int64(info.Duration * 1000),
	}
}
