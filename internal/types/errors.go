package types

import (
	"errors"
	"fmt"
)

// Terminal error kinds. None of these are retried; they either surface as an
// HTTP error at intake time or fail the job during execution.
var (
	// ErrUnsupportedFormat means the uploaded filename's extension is not on
	// the audio/video allow-list.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnsupportedMedia means the payload has no decodable audio track.
	ErrUnsupportedMedia = errors.New("no decodable audio stream")

	// ErrEmptyMedia means the decoded audio has zero duration, so the
	// pipeline would produce an empty transcript.
	ErrEmptyMedia = errors.New("media has zero duration")

	// ErrTokenNotFound means the retrieval token is unknown or was already
	// consumed.
	ErrTokenNotFound = errors.New("retrieval token not found")

	// ErrIncompleteTranscript means at least one chunk transcript is missing
	// after all retries, so no full transcript can be assembled.
	ErrIncompleteTranscript = errors.New("transcript is missing chunks")
)

// TransientError marks a failed external call that may succeed on retry
// (timeouts, rate limits, 5xx responses from a capability service).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient service error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a call the capability service rejected outright, such
// as undecodable audio. Retrying cannot help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent service error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// AnalysisError reports a failed analysis call for one text chunk of one
// summary dimension. Any single AnalysisError fails the whole job; a partial
// summary is never delivered.
type AnalysisError struct {
	Dimension string
	Chunk     int
	Err       error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s chunk %d: %v", e.Dimension, e.Chunk, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// DeliveryError reports a failed report delivery. The job moves to Failed,
// never Done, when delivery fails.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
