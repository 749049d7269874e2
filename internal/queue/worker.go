package queue

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/talktotext/talktotext/internal/media"
	"github.com/talktotext/talktotext/internal/transcription"
	"github.com/talktotext/talktotext/internal/types"
)

// Converter normalizes a fetched asset into a decodable audio file.
type Converter interface {
	Convert(ctx context.Context, inputPath, workDir string) (string, error)
}

// Segmenter measures audio and cuts planned windows into chunk files.
type Segmenter interface {
	Duration(ctx context.Context, path string) (float64, error)
	Cut(ctx context.Context, src string, w types.Window, destDir string) (types.AudioChunk, error)
}

// Summarizer turns a transcript into meeting minutes.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (types.MeetingMinutes, error)
}

// Dispatcher delivers the finished report.
type Dispatcher interface {
	DeliverReport(recipient, transcript string, minutes types.MeetingMinutes) error
}

// PoolConfig collects the injected capabilities and tunables for a pool.
// Everything is an explicit dependency; the pool holds no globals.
type PoolConfig struct {
	Workers      int
	Converter    Converter
	Segmenter    Segmenter
	Transcriber  transcription.Transcriber
	Summarizer   Summarizer
	Dispatcher   Dispatcher
	ScratchDir   string
	ChunkSeconds float64
	MaxAttempts  int
	ChunkWorkers int
}

// WorkerPool manages a pool of workers running transcription jobs through
// the pipeline. The HTTP layer enqueues and returns immediately; jobs run to
// completion or terminal failure in the background.
type WorkerPool struct {
	jobQueue chan *Job
	cfg      PoolConfig
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(cfg PoolConfig) *WorkerPool {
	return &WorkerPool{
		jobQueue: make(chan *Job, 100), // Buffer of 100 jobs
		cfg:      cfg,
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.cfg.Workers)
	for i := 0; i < wp.cfg.Workers; i++ {
		go wp.worker(i)
	}
}

// Enqueue adds a job to the queue
func (wp *WorkerPool) Enqueue(job *Job) {
	wp.jobQueue <- job
	log.Printf("Job %s enqueued (recipient: %s)", job.ID, job.Email)
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		// Panic recovery
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Worker %d: PANIC processing job %s: %v\n%s",
						id, job.ID, r, string(debug.Stack()))
					job.finish(types.StatusFailed, fmt.Errorf("worker panic: %v", r))
				}
			}()

			wp.processJob(id, job)
		}()
	}
}

// processJob runs the complete pipeline for one job. Every stage failure is
// terminal; the requester is never notified of execution failures, so each
// one is logged with the job ID. Scratch space is reclaimed on every exit
// path.
func (wp *WorkerPool) processJob(workerID int, job *Job) {
	ctx := context.Background()
	log.Printf("Worker %d: Processing job %s", workerID, job.ID)

	workDir := filepath.Join(wp.cfg.ScratchDir, job.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		log.Printf("Worker %d: Job %s failed to create work dir: %v", workerID, job.ID, err)
		job.finish(types.StatusFailed, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Printf("Failed to remove work dir %s: %v", workDir, err)
		}
		wp.cleanupTempFile(job.AssetPath)
	}()

	fail := func(stage string, err error) {
		log.Printf("Worker %d: Job %s failed during %s: %v", workerID, job.ID, stage, err)
		job.finish(types.StatusFailed, err)
	}

	// Convert
	job.Status = types.StatusConverting
	audioPath, err := wp.cfg.Converter.Convert(ctx, job.AssetPath, workDir)
	if err != nil {
		fail("conversion", err)
		return
	}

	// Segment
	job.Status = types.StatusSegmenting
	duration, err := wp.cfg.Segmenter.Duration(ctx, audioPath)
	if err != nil {
		fail("segmentation", err)
		return
	}
	windows, err := media.PlanWindows(duration, wp.cfg.ChunkSeconds)
	if err != nil {
		fail("segmentation", err)
		return
	}

	// Transcribe chunks concurrently; the sequence index carries ordering,
	// so completion order is irrelevant.
	job.Status = types.StatusTranscribing
	results, err := wp.transcribeWindows(ctx, audioPath, windows, workDir)
	if err != nil {
		fail("transcription", err)
		return
	}

	// Assemble
	job.Status = types.StatusAssembling
	transcript, err := transcription.Assemble(results, len(windows))
	if err != nil {
		fail("assembly", err)
		return
	}

	// Summarize
	job.Status = types.StatusSummarizing
	minutes, err := wp.cfg.Summarizer.Summarize(ctx, transcript)
	if err != nil {
		fail("summarization", err)
		return
	}

	// Deliver; a failed delivery moves the job to Failed, never Done.
	job.Status = types.StatusDelivering
	if err := wp.cfg.Dispatcher.DeliverReport(job.Email, transcript, minutes); err != nil {
		fail("delivery", err)
		return
	}

	job.finish(types.StatusDone, nil)
	log.Printf("Worker %d: Job %s completed successfully (%d chunks, %d transcript chars)",
		workerID, job.ID, len(windows), len(transcript))
}

// transcribeWindows cuts and transcribes every window with bounded
// concurrency. Each chunk file exists only while its transcription call is
// in flight.
func (wp *WorkerPool) transcribeWindows(ctx context.Context, audioPath string, windows []types.Window, workDir string) ([]types.TranscriptChunk, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]types.TranscriptChunk, 0, len(windows))
		errList = make([]error, 0, len(windows))
	)

	sem := make(chan struct{}, wp.cfg.ChunkWorkers)
	wg.Add(len(windows))
	for _, w := range windows {
		sem <- struct{}{}
		go func(w types.Window) {
			defer wg.Done()
			defer func() { <-sem }()

			chunk, err := wp.cfg.Segmenter.Cut(ctx, audioPath, w, workDir)
			if err != nil {
				mu.Lock()
				errList = append(errList, err)
				mu.Unlock()
				return
			}

			tc, err := transcription.TranscribeWithRetry(ctx, wp.cfg.Transcriber, chunk, wp.cfg.MaxAttempts)
			wp.cleanupTempFile(chunk.Path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errList = append(errList, err)
				return
			}
			results = append(results, tc)
		}(w)
	}
	wg.Wait()

	if len(errList) > 0 {
		return nil, errList[0]
	}
	return results, nil
}

// cleanupTempFile removes a temporary file
func (wp *WorkerPool) cleanupTempFile(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to cleanup temp file %s: %v", filePath, err)
	}
}
