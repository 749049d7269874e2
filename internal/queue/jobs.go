package queue

import (
	"time"

	"github.com/talktotext/talktotext/internal/types"
)

// Job is one end-to-end pipeline run for one validated upload. The worker
// pool owns it exclusively from enqueue until a terminal state; nothing else
// mutates it.
type Job struct {
	// ID doubles as the consumed retrieval token, so every log line about
	// the job correlates with the intake records.
	ID        string
	Email     string
	AssetPath string
	Extension string
	Status    string
	Err       error
	CreatedAt time.Time

	// OnTerminal, when set, is called exactly once after the job reaches
	// Done or Failed. It makes the outcome of background execution
	// observable without any caller blocking on it.
	OnTerminal func(*Job)
}

// NewJob creates a job for a freshly consumed upload.
func NewJob(token, email, assetPath, extension string) *Job {
	return &Job{
		ID:        token,
		Email:     email,
		AssetPath: assetPath,
		Extension: extension,
		Status:    types.StatusFetched,
		CreatedAt: time.Now(),
	}
}

func (j *Job) finish(status string, err error) {
	j.Status = status
	j.Err = err
	if j.OnTerminal != nil {
		j.OnTerminal(j)
	}
}
