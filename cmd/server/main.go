package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/soundfetch/soundfetch/config"
	"github.com/soundfetch/soundfetch/internal/acquire"
	"github.com/soundfetch/soundfetch/internal/audio"
	"github.com/soundfetch/soundfetch/internal/cover"
	"github.com/soundfetch/soundfetch/internal/server"
	"github.com/soundfetch/soundfetch/internal/soundcloud"
	"github.com/soundfetch/soundfetch/internal/source"
	"github.com/soundfetch/soundfetch/internal/storage"
	"github.com/soundfetch/soundfetch/internal/tag"
	"github.com/soundfetch/soundfetch/internal/workdir"
	"github.com/soundfetch/soundfetch/internal/ytdlp"
)

// cleanupDelay is how long finalized working folders stay on disk after a
// response finishes, so slow clients can still read the streamed file.
const cleanupDelay = 30 * time.Second

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to configuration file")
	port := flag.String("port", "", "Server port (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	scClient := soundcloud.NewClient(cfg.SoundCloud.ClientID)
	ytClient := ytdlp.NewClient(cfg.Tools.YtDlpPath, cfg.Tools.FFmpegPath)
	ffmpeg := audio.NewFFmpeg(cfg.Tools.FFmpegPath)
	covers := cover.NewProcessor()

	archiver, err := storage.New(context.Background(), cfg.Archive)
	if err != nil {
		slog.Error("Failed to configure archiver", "error", err)
		os.Exit(1)
	}

	pipeline := acquire.NewPipeline(
		os.TempDir(),
		source.NewSoundCloud(scClient),
		source.NewYouTube(ytClient, covers),
		ffmpeg,
		tag.NewTagger(),
		archiver,
		logger,
	)

	janitor := workdir.NewJanitor(cleanupDelay)
	srv := server.New(pipeline, janitor, scClient, ytClient, logger)

	listenPort := cfg.Server.Port
	if *port != "" {
		listenPort = *port
	}

	slog.Info("Starting soundfetch API server", "port", listenPort)
	if err := srv.Start(listenPort); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
