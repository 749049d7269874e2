package cleanup

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ExpiredSweeper reclaims stored uploads whose validation link was never
// clicked.
type ExpiredSweeper interface {
	SweepExpired(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler periodically reclaims stale scratch files and expired uploads.
// It is the sweep that bounds how long an orphaned or abandoned payload can
// live.
type Scheduler struct {
	scratchDir      string
	store           ExpiredSweeper
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(scratchDir string, store ExpiredSweeper, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		scratchDir:      scratchDir,
		store:           store,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the cleanup scheduler
func (s *Scheduler) Start() {
	// Run initial cleanup on startup
	log.Println("Running initial cleanup sweep...")
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Cleanup scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the cleanup scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Cleanup scheduler stopped")
}

func (s *Scheduler) sweep() {
	maxAge := time.Duration(s.maxAgeHours) * time.Hour

	s.cleanOldFiles(maxAge)

	if s.store != nil {
		n, err := s.store.SweepExpired(context.Background(), maxAge)
		if err != nil {
			log.Printf("Error sweeping expired uploads: %v", err)
		} else if n > 0 {
			log.Printf("Swept %d expired uploads", n)
		}
	}
}

// cleanOldFiles removes scratch files older than maxAge. Live jobs touch
// their files constantly, so age is a safe staleness signal.
func (s *Scheduler) cleanOldFiles(maxAge time.Duration) {
	now := time.Now()

	var deletedCount int
	var deletedSize int64

	err := filepath.Walk(s.scratchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		// Check file age
		age := now.Sub(info.ModTime())
		if age > maxAge {
			size := info.Size()
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete old file %s: %v", path, err)
			} else {
				deletedCount++
				deletedSize += size
				log.Printf("Deleted stale scratch file: %s (age: %s, size: %dKB)",
					filepath.Base(path), age.Round(time.Hour), size/1024)
			}
		}

		return nil
	})

	if err != nil {
		log.Printf("Error during cleanup: %v", err)
	}

	if deletedCount > 0 {
		log.Printf("Cleanup complete: %d files deleted, %.2fMB freed",
			deletedCount, float64(deletedSize)/(1024*1024))
	}
}

// EnsureScratchDirExists creates the scratch directory if it doesn't exist
func EnsureScratchDirExists(scratchDir string) error {
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return err
	}
	log.Printf("Scratch directory ready: %s", scratchDir)
	return nil
}
