package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talktotext/talktotext/internal/transcription"
	"github.com/talktotext/talktotext/internal/types"
)

type fakeConverter struct{}

func (fakeConverter) Convert(_ context.Context, inputPath, _ string) (string, error) {
	return inputPath, nil
}

type fakeSegmenter struct {
	duration float64
}

func (f fakeSegmenter) Duration(_ context.Context, _ string) (float64, error) {
	return f.duration, nil
}

func (f fakeSegmenter) Cut(_ context.Context, _ string, w types.Window, destDir string) (types.AudioChunk, error) {
	path := filepath.Join(destDir, fmt.Sprintf("segment_%04d.wav", w.Index))
	if err := os.WriteFile(path, []byte("pcm"), 0644); err != nil {
		return types.AudioChunk{}, err
	}
	return types.AudioChunk{Index: w.Index, Path: path, Start: w.Start, Seconds: w.Seconds}, nil
}

// scriptedTranscriber answers each chunk with a canned word and can inject
// one transient or permanent failure for a chosen index.
type scriptedTranscriber struct {
	mu           sync.Mutex
	failIndex    int
	failKind     error // assigned to the first call for failIndex
	failuresLeft int
	calls        map[int]int
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, chunk types.AudioChunk) (types.TranscriptChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[int]int{}
	}
	s.calls[chunk.Index]++

	if chunk.Index == s.failIndex && s.failuresLeft > 0 {
		s.failuresLeft--
		return types.TranscriptChunk{}, s.failKind
	}
	return types.TranscriptChunk{Index: chunk.Index, Text: fmt.Sprintf("word%d", chunk.Index)}, nil
}

type fakeSummarizer struct{ err error }

func (f fakeSummarizer) Summarize(_ context.Context, transcript string) (types.MeetingMinutes, error) {
	if f.err != nil {
		return types.MeetingMinutes{}, f.err
	}
	return types.MeetingMinutes{
		AbstractSummary: "summary of: " + transcript,
		KeyPoints:       "points",
		ActionItems:     "items",
		Sentiment:       "neutral",
	}, nil
}

type fakeDispatcher struct {
	mu         sync.Mutex
	deliveries int
	recipient  string
	transcript string
	err        error
}

func (f *fakeDispatcher) DeliverReport(recipient, transcript string, _ types.MeetingMinutes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deliveries++
	f.recipient = recipient
	f.transcript = transcript
	return nil
}

func newTestPool(t *testing.T, tr transcription.Transcriber, disp *fakeDispatcher, sum Summarizer) (*WorkerPool, string) {
	t.Helper()
	scratch := t.TempDir()
	pool := NewWorkerPool(PoolConfig{
		Workers:      1,
		Converter:    fakeConverter{},
		Segmenter:    fakeSegmenter{duration: 45},
		Transcriber:  tr,
		Summarizer:   sum,
		Dispatcher:   disp,
		ScratchDir:   scratch,
		ChunkSeconds: 20,
		MaxAttempts:  3,
		ChunkWorkers: 2,
	})
	pool.Start()
	return pool, scratch
}

func runJob(t *testing.T, pool *WorkerPool, scratch string) *Job {
	t.Helper()
	assetPath := filepath.Join(scratch, "upload.wav")
	require.NoError(t, os.WriteFile(assetPath, []byte("wav"), 0644))

	done := make(chan *Job, 1)
	job := NewJob("test-token", "user@example.com", assetPath, "wav")
	job.OnTerminal = func(j *Job) { done <- j }
	pool.Enqueue(job)

	select {
	case j := <-done:
		return j
	case <-time.After(30 * time.Second):
		t.Fatal("job did not reach a terminal state")
		return nil
	}
}

func TestPipelineHappyPath(t *testing.T) {
	disp := &fakeDispatcher{}
	pool, scratch := newTestPool(t, &scriptedTranscriber{}, disp, fakeSummarizer{})

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusDone, job.Status)
	require.NoError(t, job.Err)

	// 45s at 20s windows: three chunks, space-joined in index order.
	require.Equal(t, 1, disp.deliveries)
	require.Equal(t, "user@example.com", disp.recipient)
	require.Equal(t, "word0 word1 word2", disp.transcript)
}

func TestPipelineRecoversFromTransientChunkFailure(t *testing.T) {
	tr := &scriptedTranscriber{
		failIndex:    1,
		failKind:     &types.TransientError{Err: errors.New("rate limited")},
		failuresLeft: 1,
	}
	disp := &fakeDispatcher{}
	pool, scratch := newTestPool(t, tr, disp, fakeSummarizer{})

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusDone, job.Status)
	require.Equal(t, "word0 word1 word2", disp.transcript)
	require.Equal(t, 2, tr.calls[1], "failed chunk must be retried")
}

func TestPipelineFailsOnPermanentChunkFailure(t *testing.T) {
	tr := &scriptedTranscriber{
		failIndex:    2,
		failKind:     &types.PermanentError{Err: errors.New("corrupt audio")},
		failuresLeft: 99,
	}
	disp := &fakeDispatcher{}
	pool, scratch := newTestPool(t, tr, disp, fakeSummarizer{})

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusFailed, job.Status)
	require.Error(t, job.Err)
	require.Equal(t, 1, tr.calls[2], "permanent failure must not be retried")
	require.Equal(t, 0, disp.deliveries, "no email on a failed job")
	requireScratchReclaimed(t, scratch, "test-token")
}

func TestPipelineFailsOnEmptyMedia(t *testing.T) {
	disp := &fakeDispatcher{}
	scratch := t.TempDir()
	pool := NewWorkerPool(PoolConfig{
		Workers:      1,
		Converter:    fakeConverter{},
		Segmenter:    fakeSegmenter{duration: 0},
		Transcriber:  &scriptedTranscriber{},
		Summarizer:   fakeSummarizer{},
		Dispatcher:   disp,
		ScratchDir:   scratch,
		ChunkSeconds: 20,
		MaxAttempts:  3,
		ChunkWorkers: 2,
	})
	pool.Start()

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusFailed, job.Status)
	require.ErrorIs(t, job.Err, types.ErrEmptyMedia)
	require.Equal(t, 0, disp.deliveries)
}

func TestPipelineFailsOnDeliveryError(t *testing.T) {
	disp := &fakeDispatcher{err: &types.DeliveryError{Err: errors.New("mail gateway down")}}
	pool, scratch := newTestPool(t, &scriptedTranscriber{}, disp, fakeSummarizer{})

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusFailed, job.Status, "a delivery failure must not reach Done")
}

func TestPipelineFailsOnAnalysisError(t *testing.T) {
	disp := &fakeDispatcher{}
	sum := fakeSummarizer{err: &types.AnalysisError{Dimension: "sentiment", Err: errors.New("boom")}}
	pool, scratch := newTestPool(t, &scriptedTranscriber{}, disp, sum)

	job := runJob(t, pool, scratch)
	require.Equal(t, types.StatusFailed, job.Status)
	require.Equal(t, 0, disp.deliveries)
	requireScratchReclaimed(t, scratch, "test-token")
}

// requireScratchReclaimed asserts the job's work dir and fetched asset copy
// are gone.
func requireScratchReclaimed(t *testing.T, scratch, jobID string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(scratch, jobID))
	require.True(t, os.IsNotExist(err), "work dir must be removed")

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".wav"), "fetched asset copy must be removed")
	}
}
