package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/talktotext/talktotext/internal/queue"
	"github.com/talktotext/talktotext/internal/types"
)

// UploadConsumer claims a stored upload by its single-use token.
type UploadConsumer interface {
	Consume(ctx context.Context, token, destDir string) (*types.PendingUpload, error)
}

// Enqueuer hands a job to the background pool.
type Enqueuer interface {
	Enqueue(job *queue.Job)
}

// ValidateHandler handles the one-time link: it consumes the token, then
// kicks the pipeline off in the background and responds immediately.
type ValidateHandler struct {
	store      UploadConsumer
	pool       Enqueuer
	scratchDir string
}

// NewValidateHandler creates a new validation handler
func NewValidateHandler(store UploadConsumer, pool Enqueuer, scratchDir string) *ValidateHandler {
	return &ValidateHandler{
		store:      store,
		pool:       pool,
		scratchDir: scratchDir,
	}
}

// Handle processes the validation request
func (h *ValidateHandler) Handle(c *fiber.Ctx) error {
	token := c.Params("token")

	upload, err := h.store.Consume(c.Context(), token, h.scratchDir)
	if err != nil {
		if errors.Is(err, types.ErrTokenNotFound) {
			return c.Status(404).JSON(fiber.Map{
				"error": "Invalid or expired link",
			})
		}
		log.Printf("Failed to consume token %s: %v", token, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to fetch upload",
		})
	}

	job := queue.NewJob(upload.Token, upload.Email, upload.LocalPath, upload.Extension)
	job.OnTerminal = func(j *queue.Job) {
		if j.Err != nil {
			log.Printf("Job %s terminal state %s: %v", j.ID, j.Status, j.Err)
			return
		}
		log.Printf("Job %s terminal state %s", j.ID, j.Status)
	}
	h.pool.Enqueue(job)

	return c.JSON(fiber.Map{
		"message": "Processing started, the transcript will arrive by email",
	})
}
