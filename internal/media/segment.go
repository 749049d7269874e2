package media

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/talktotext/talktotext/internal/types"
	"github.com/talktotext/talktotext/pkg/executor"
)

// Segmenter slices an audio file into transcription-sized chunks. Window
// planning is separated from cutting so the caller can cut lazily: only the
// chunks currently being transcribed exist on disk.
type Segmenter struct {
	exec executor.Executor
}

func NewSegmenter(exec executor.Executor) *Segmenter {
	return &Segmenter{exec: exec}
}

// Duration returns the audio duration in seconds via ffprobe.
func (s *Segmenter) Duration(ctx context.Context, path string) (float64, error) {
	out, err := s.exec.Execute(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", types.ErrUnsupportedMedia, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable duration %q", types.ErrUnsupportedMedia, out)
	}
	return duration, nil
}

// PlanWindows walks the timeline from zero in fixed windows of chunkSeconds.
// The windows are contiguous, non-overlapping and cover duration exactly;
// the last window holds the remainder. Zero duration yields EmptyMedia.
func PlanWindows(duration, chunkSeconds float64) ([]types.Window, error) {
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("chunk seconds must be positive, got %v", chunkSeconds)
	}
	if duration <= 0 {
		return nil, types.ErrEmptyMedia
	}

	count := int(math.Ceil(duration / chunkSeconds))
	windows := make([]types.Window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * chunkSeconds
		windows = append(windows, types.Window{
			Index:   i,
			Start:   start,
			Seconds: math.Min(chunkSeconds, duration-start),
		})
	}
	return windows, nil
}

// Cut extracts one window into its own WAV file under destDir. The caller
// owns the file and removes it once the chunk is transcribed.
func (s *Segmenter) Cut(ctx context.Context, src string, w types.Window, destDir string) (types.AudioChunk, error) {
	chunkPath := filepath.Join(destDir, fmt.Sprintf("segment_%04d.wav", w.Index))

	_, err := s.exec.Execute(ctx, "ffmpeg",
		"-ss", formatSeconds(w.Start),
		"-t", formatSeconds(w.Seconds),
		"-i", src,
		"-c:a", "pcm_s16le",
		"-y",
		chunkPath,
	)
	if err != nil {
		return types.AudioChunk{}, fmt.Errorf("cut segment %d: %w", w.Index, err)
	}

	return types.AudioChunk{
		Index:   w.Index,
		Path:    chunkPath,
		Start:   w.Start,
		Seconds: w.Seconds,
	}, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
