package executor

import "context"

// Executor runs external commands. The media pipeline shells out to ffmpeg
// and ffprobe through this interface so tests can substitute a fake.
type Executor interface {
	// Execute runs the named command and returns its stdout.
	Execute(ctx context.Context, name string, args ...string) (string, error)
}
