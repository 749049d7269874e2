package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/talktotext/talktotext/internal/media"
)

// UploadStore persists an uploaded asset and mints its retrieval token.
type UploadStore interface {
	Put(ctx context.Context, email, extension string, payload io.Reader) (string, error)
}

// LinkMailer sends the one-time validation link to the requester.
type LinkMailer interface {
	DeliverValidationLink(recipient, token string) error
}

// TranscribeHandler handles intake: it validates the request, stores the
// asset and mails a validation link. Processing cost is deferred until the
// requester clicks the link.
type TranscribeHandler struct {
	store     UploadStore
	mailer    LinkMailer
	maxSizeMB int
}

// NewTranscribeHandler creates a new intake handler
func NewTranscribeHandler(store UploadStore, mailer LinkMailer, maxSizeMB int) *TranscribeHandler {
	return &TranscribeHandler{
		store:     store,
		mailer:    mailer,
		maxSizeMB: maxSizeMB,
	}
}

// Handle processes the intake request
func (h *TranscribeHandler) Handle(c *fiber.Ctx) error {
	email := c.FormValue("email")
	file, err := c.FormFile("audio_file")
	if email == "" || err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Missing required fields",
		})
	}

	if !media.AllowedFormat(file.Filename) {
		return c.Status(401).JSON(fiber.Map{
			"error": "Invalid File Format",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
		})
	}

	payload, err := file.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to read upload",
		})
	}
	defer payload.Close()

	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
	token, err := h.store.Put(c.Context(), email, extension, payload)
	if err != nil {
		log.Printf("Failed to store upload: %v", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to store upload",
		})
	}

	if err := h.mailer.DeliverValidationLink(email, token); err != nil {
		log.Printf("Failed to send validation link for %s: %v", token, err)
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to send validation email",
		})
	}

	log.Printf("Upload %s stored, validation link sent", token)
	return c.JSON(fiber.Map{
		"message": "Transcription request submitted successfully",
	})
}
