package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Server     ServerConfig     `yaml:"server"`
	Tools      ToolsConfig      `yaml:"tools"`
	SoundCloud SoundCloudConfig `yaml:"soundcloud"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// ToolsConfig holds the paths of the external binaries the pipeline drives.
type ToolsConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	YtDlpPath  string `yaml:"ytdlp_path"`
}

type SoundCloudConfig struct {
	// ClientID is the api-v2 client id. When empty it is discovered by
	// scraping the SoundCloud web app scripts.
	ClientID string `yaml:"client_id"`
}

type ArchiveConfig struct {
	// Type of archive target: "none", "local" or "gcs"
	Type string `yaml:"type"`

	// Local archive options
	OutputDir string `yaml:"output_dir"`

	// GCS archive options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	// Unmarshal the YAML data into the struct
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()

	return config, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}

	if c.Tools.FFmpegPath == "" {
		c.Tools.FFmpegPath = "ffmpeg"
	}

	if c.Tools.YtDlpPath == "" {
		c.Tools.YtDlpPath = "yt-dlp"
	}

	if c.SoundCloud.ClientID == "" {
		c.SoundCloud.ClientID = os.Getenv("SOUNDCLOUD_CLIENT_ID")
	}

	if c.Archive.Type == "" {
		c.Archive.Type = "none"
	}
}
