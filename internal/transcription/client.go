package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/talktotext/talktotext/internal/types"
)

// Transcriber converts one audio chunk into its transcript chunk. Calls are
// idempotent per chunk bytes and safe to run concurrently across chunks of
// one job; the sequence index carries the ordering.
type Transcriber interface {
	Transcribe(ctx context.Context, chunk types.AudioChunk) (types.TranscriptChunk, error)
}

// OpenAIClient transcribes audio chunks through the Whisper API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, chunk types.AudioChunk) (types.TranscriptChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: chunk.Path,
	})
	if err != nil {
		return types.TranscriptChunk{}, classify(err)
	}

	return types.TranscriptChunk{
		Index: chunk.Index,
		Text:  strings.TrimSpace(resp.Text),
	}, nil
}

// classify sorts an API failure into the retryable and non-retryable kinds.
// Timeouts, rate limits and server-side errors may clear up on retry; any
// other rejection means the service refused the input.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.TransientError{Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError {
			return &types.TransientError{Err: err}
		}
		return &types.PermanentError{Err: err}
	}

	// Connection resets and other transport-level failures.
	return &types.TransientError{Err: fmt.Errorf("transcription request: %w", err)}
}
