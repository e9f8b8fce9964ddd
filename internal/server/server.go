// Package server exposes the acquisition pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/soundcloud"
	"github.com/soundfetch/soundfetch/internal/workdir"
	"github.com/soundfetch/soundfetch/internal/ytdlp"
)

// Acquirer runs the acquisition pipeline for one request.
type Acquirer interface {
	Acquire(ctx context.Context, req domain.TrackRequest) (domain.FinalizedTrack, error)
}

// Server handles HTTP requests for track acquisition and lookups.
type Server struct {
	router     *gin.Engine
	acquirer   Acquirer
	janitor    *workdir.Janitor
	soundcloud *soundcloud.Client
	ytdlp      *ytdlp.Client
	logger     *slog.Logger
}

// New creates an HTTP server wired to the given pipeline and clients.
func New(acquirer Acquirer, janitor *workdir.Janitor, sc *soundcloud.Client, yt *ytdlp.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		router:     router,
		acquirer:   acquirer,
		janitor:    janitor,
		soundcloud: sc,
		ytdlp:      yt,
		logger:     logger,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/download", s.downloadTrack)
		api.GET("/soundcloud/tracks", s.getSoundCloudTrack)
		api.GET("/youtube/tracks", s.getYouTubeTrack)
		api.GET("/users", s.getUser)
		api.GET("/favorites", s.getFavorites)
	}
}

// Start starts the HTTP server on the given port.
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "soundfetch",
	})
}
