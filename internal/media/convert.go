package media

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/talktotext/talktotext/internal/types"
	"github.com/talktotext/talktotext/pkg/executor"
)

// Converter normalizes an uploaded asset into a decodable audio file.
// Audio uploads pass through untouched; video uploads get their audio track
// extracted to 16kHz mono WAV.
type Converter struct {
	exec     executor.Executor
	maxBytes int64
}

// NewConverter creates a converter with a hard input size ceiling in bytes.
func NewConverter(exec executor.Executor, maxBytes int64) *Converter {
	return &Converter{
		exec:     exec,
		maxBytes: maxBytes,
	}
}

// Convert returns the path of an audio file for the given input. For video
// inputs the original payload is deleted once the extracted track is written,
// so no large container file outlives this step.
func (c *Converter) Convert(ctx context.Context, inputPath, workDir string) (string, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	// Reject before decoding to bound memory use.
	if info.Size() > c.maxBytes {
		return "", fmt.Errorf("input is %d bytes, over the %d byte ceiling", info.Size(), c.maxBytes)
	}

	if !IsVideo(inputPath) {
		return inputPath, nil
	}

	if err := c.checkAudioStream(ctx, inputPath); err != nil {
		return "", err
	}

	outputPath := filepath.Join(workDir, fmt.Sprintf("audio_%s.wav", uuid.New().String()))

	// FFmpeg command: drop video, convert to 16kHz mono WAV
	_, err = c.exec.Execute(ctx, "ffmpeg",
		"-i", inputPath,
		"-vn",          // No video
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y", // Overwrite output
		outputPath,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrUnsupportedMedia, err)
	}

	if err := os.Remove(inputPath); err != nil {
		log.Printf("Failed to remove source video %s: %v", inputPath, err)
	}

	return outputPath, nil
}

// checkAudioStream fails with ErrUnsupportedMedia when ffprobe finds no audio
// stream in the container.
func (c *Converter) checkAudioStream(ctx context.Context, inputPath string) error {
	out, err := c.exec.Execute(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		inputPath,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrUnsupportedMedia, err)
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Errorf("%w: container has no audio track", types.ErrUnsupportedMedia)
	}
	return nil
}
