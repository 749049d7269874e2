package transcription

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/talktotext/talktotext/internal/types"
)

func TestMain(m *testing.M) {
	backoffUnit = time.Millisecond
	os.Exit(m.Run())
}

// flakyTranscriber fails a fixed number of times before succeeding.
type flakyTranscriber struct {
	failures int
	calls    int
	err      error
}

func (f *flakyTranscriber) Transcribe(_ context.Context, chunk types.AudioChunk) (types.TranscriptChunk, error) {
	f.calls++
	if f.calls <= f.failures {
		return types.TranscriptChunk{}, f.err
	}
	return types.TranscriptChunk{Index: chunk.Index, Text: "ok"}, nil
}

func TestRetryRecoversFromTransientFailures(t *testing.T) {
	tr := &flakyTranscriber{failures: 2, err: &types.TransientError{Err: errors.New("503")}}

	got, err := TranscribeWithRetry(context.Background(), tr, types.AudioChunk{Index: 1}, 3)
	require.NoError(t, err)
	require.Equal(t, types.TranscriptChunk{Index: 1, Text: "ok"}, got)
	require.Equal(t, 3, tr.calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	tr := &flakyTranscriber{failures: 10, err: &types.TransientError{Err: errors.New("503")}}

	_, err := TranscribeWithRetry(context.Background(), tr, types.AudioChunk{Index: 0}, 2)
	require.Error(t, err)
	require.True(t, types.IsTransient(err))
	require.Equal(t, 2, tr.calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	tr := &flakyTranscriber{failures: 10, err: &types.PermanentError{Err: errors.New("bad audio")}}

	_, err := TranscribeWithRetry(context.Background(), tr, types.AudioChunk{Index: 0}, 3)
	var pe *types.PermanentError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 1, tr.calls, "permanent errors must not be retried")
}

func TestClassify(t *testing.T) {
	require.True(t, types.IsTransient(classify(context.DeadlineExceeded)))
	require.True(t, types.IsTransient(classify(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests})))
	require.True(t, types.IsTransient(classify(&openai.APIError{HTTPStatusCode: http.StatusBadGateway})))
	require.True(t, types.IsTransient(classify(errors.New("connection reset by peer"))))

	var pe *types.PermanentError
	require.ErrorAs(t, classify(&openai.APIError{HTTPStatusCode: http.StatusBadRequest}), &pe)
	require.ErrorAs(t, classify(&openai.APIError{HTTPStatusCode: http.StatusUnauthorized}), &pe)
}
