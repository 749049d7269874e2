package config

import (
	"os"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Server: ServerConfig{PublicBaseURL: "http://localhost:8080"},
				Mail:   MailConfig{FromAddress: "noreply@example.com"},
			},
			wantErr: false,
		},
		{
			name: "missing base url",
			config: Config{
				Mail: MailConfig{FromAddress: "noreply@example.com"},
			},
			wantErr: true,
		},
		{
			name: "missing from address",
			config: Config{
				Server: ServerConfig{PublicBaseURL: "http://localhost:8080"},
			},
			wantErr: true,
		},
		{
			name: "negative chunk seconds",
			config: Config{
				Server:    ServerConfig{PublicBaseURL: "http://localhost:8080"},
				Mail:      MailConfig{FromAddress: "noreply@example.com"},
				Segmenter: SegmenterConfig{ChunkSeconds: -5},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{PublicBaseURL: "http://localhost:8080"},
		Mail:   MailConfig{FromAddress: "noreply@example.com"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Segmenter.ChunkSeconds != 20 {
		t.Errorf("ChunkSeconds = %v, want 20", cfg.Segmenter.ChunkSeconds)
	}
	if cfg.Summarizer.ChunkChars != 3000 {
		t.Errorf("ChunkChars = %v, want 3000", cfg.Summarizer.ChunkChars)
	}
	if cfg.Transcription.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %v, want 3", cfg.Transcription.MaxAttempts)
	}
	if cfg.RateLimit.PerMinute != 5 {
		t.Errorf("PerMinute = %v, want 5", cfg.RateLimit.PerMinute)
	}
}

func TestLoad(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
server:
  host: "127.0.0.1"
  port: 9000
  public_base_url: "https://talktotext.example.com"

segmenter:
  chunk_seconds: 15

mail:
  from_address: "talktotextpro@gmail.com"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %v, want %v", cfg.Server.Port, 9000)
	}
	if cfg.Segmenter.ChunkSeconds != 15 {
		t.Errorf("ChunkSeconds = %v, want %v", cfg.Segmenter.ChunkSeconds, 15)
	}
	if cfg.Workers.Count != 2 {
		t.Errorf("Workers.Count = %v, want default %v", cfg.Workers.Count, 2)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
