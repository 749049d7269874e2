package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Limits        LimitsConfig        `yaml:"limits"`
	Segmenter     SegmenterConfig     `yaml:"segmenter"`
	Summarizer    SummarizerConfig    `yaml:"summarizer"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Workers       WorkersConfig       `yaml:"workers"`
	Storage       StorageConfig       `yaml:"storage"`
	Cleanup       CleanupConfig       `yaml:"cleanup"`
	Mail          MailConfig          `yaml:"mail"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicBaseURL is the externally reachable address used to build
	// one-time validation links.
	PublicBaseURL string `yaml:"public_base_url"`
}

type LimitsConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
}

type SegmenterConfig struct {
	// ChunkSeconds is the audio window length. It must stay conservatively
	// below the transcription service's payload limit; it is independent of
	// the summarizer's text window.
	ChunkSeconds float64 `yaml:"chunk_seconds"`
}

type SummarizerConfig struct {
	// ChunkChars is the text window, in characters, for one analysis call.
	ChunkChars int `yaml:"chunk_chars"`
}

type TranscriptionConfig struct {
	Model                 string `yaml:"model"`
	MaxAttempts           int    `yaml:"max_attempts"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	ChunkWorkers          int    `yaml:"chunk_workers"`
}

type AnalysisConfig struct {
	Model string `yaml:"model"`
}

type WorkersConfig struct {
	Count int `yaml:"count"`
}

type StorageConfig struct {
	ScratchDir string `yaml:"scratch_dir"`
	BlobDir    string `yaml:"blob_dir"`
	Database   string `yaml:"database"`
}

type CleanupConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	MaxAgeHours     int `yaml:"max_age_hours"`
}

type MailConfig struct {
	FromAddress string `yaml:"from_address"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
}

// Load reads and validates the YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.PublicBaseURL == "" {
		return fmt.Errorf("server.public_base_url is required")
	}
	if c.Mail.FromAddress == "" {
		return fmt.Errorf("mail.from_address is required")
	}
	if c.Segmenter.ChunkSeconds < 0 {
		return fmt.Errorf("segmenter.chunk_seconds must be positive")
	}
	if c.Summarizer.ChunkChars < 0 {
		return fmt.Errorf("summarizer.chunk_chars must be positive")
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Limits.MaxFileSizeMB == 0 {
		c.Limits.MaxFileSizeMB = 100
	}
	if c.Segmenter.ChunkSeconds == 0 {
		c.Segmenter.ChunkSeconds = 20
	}
	if c.Summarizer.ChunkChars == 0 {
		c.Summarizer.ChunkChars = 3000
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}
	if c.Transcription.MaxAttempts == 0 {
		c.Transcription.MaxAttempts = 3
	}
	if c.Transcription.RequestTimeoutSeconds == 0 {
		c.Transcription.RequestTimeoutSeconds = 120
	}
	if c.Transcription.ChunkWorkers == 0 {
		c.Transcription.ChunkWorkers = 4
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = "gpt-3.5-turbo"
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = 2
	}
	if c.Storage.ScratchDir == "" {
		c.Storage.ScratchDir = "data/scratch"
	}
	if c.Storage.BlobDir == "" {
		c.Storage.BlobDir = "data/blobs"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "data/talktotext.db"
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 24
	}
	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 5
	}

	return nil
}
