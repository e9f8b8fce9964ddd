package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/soundfetch/soundfetch/config"
	"github.com/soundfetch/soundfetch/internal/acquire"
	"github.com/soundfetch/soundfetch/internal/audio"
	"github.com/soundfetch/soundfetch/internal/cover"
	"github.com/soundfetch/soundfetch/internal/domain"
	"github.com/soundfetch/soundfetch/internal/soundcloud"
	"github.com/soundfetch/soundfetch/internal/source"
	"github.com/soundfetch/soundfetch/internal/tag"
	"github.com/soundfetch/soundfetch/internal/workdir"
	"github.com/soundfetch/soundfetch/internal/ytdlp"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	name := flag.String("name", "", "Display name override (\"Artist - Title\")")
	album := flag.String("album", "", "Album tag")
	lyrics := flag.String("lyrics", "", "Unsynchronized lyrics tag")
	outputDir := flag.String("o", ".", "Directory to place the finalized MP3 in")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fetch [flags] <track url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	trackURL := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Keep log noise off the progress bar.
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	scClient := soundcloud.NewClient(cfg.SoundCloud.ClientID)
	ytClient := ytdlp.NewClient(cfg.Tools.YtDlpPath, cfg.Tools.FFmpegPath)

	pipeline := acquire.NewPipeline(
		os.TempDir(),
		source.NewSoundCloud(scClient).WithProgress(newProgressBar()),
		source.NewYouTube(ytClient, cover.NewProcessor()),
		audio.NewFFmpeg(cfg.Tools.FFmpegPath),
		tag.NewTagger(),
		nil,
		logger,
	)

	track, err := pipeline.Acquire(context.Background(), domain.TrackRequest{
		SourceURL:   trackURL,
		DisplayName: *name,
		Album:       *album,
		Lyrics:      *lyrics,
	})
	if err != nil {
		if folder := acquire.FolderOf(err); folder != "" {
			workdir.Remove(folder)
		}
		fmt.Fprintf(os.Stderr, "acquisition failed: %v\n", err)
		os.Exit(1)
	}

	destPath := filepath.Join(*outputDir, filepath.Base(track.AudioPath))
	if err := copyFile(track.AudioPath, destPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output file: %v\n", err)
		os.Exit(1)
	}
	workdir.Remove(track.Folder)

	fmt.Println(destPath)
}

// newProgressBar returns a byte progress callback rendering a terminal bar.
// The bar is created on the first callback, once the download size is known.
func newProgressBar() source.Progress {
	var once sync.Once
	var bar *progressbar.ProgressBar

	return func(received, total int64) {
		once.Do(func() {
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetDescription("downloading"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)
		})
		bar.Set64(received)
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
