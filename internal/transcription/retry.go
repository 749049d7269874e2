package transcription

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/talktotext/talktotext/internal/types"
)

// backoffUnit scales the delay between attempts; tests shorten it.
var backoffUnit = time.Second

// TranscribeWithRetry calls the transcriber up to maxAttempts times, backing
// off between attempts. Only transient failures are retried; a permanent
// rejection returns immediately.
func TranscribeWithRetry(ctx context.Context, t Transcriber, chunk types.AudioChunk, maxAttempts int) (types.TranscriptChunk, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := t.Transcribe(ctx, chunk)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !types.IsTransient(err) {
			return types.TranscriptChunk{}, err
		}

		log.Printf("Transcription attempt %d/%d failed for chunk %d: %v", attempt, maxAttempts, chunk.Index, err)
		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt*attempt) * backoffUnit): // Exponential backoff
			case <-ctx.Done():
				return types.TranscriptChunk{}, ctx.Err()
			}
		}
	}

	return types.TranscriptChunk{}, fmt.Errorf("chunk %d failed after %d attempts: %w", chunk.Index, maxAttempts, lastErr)
}
