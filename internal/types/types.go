package types

import "time"

// Job status constants, in pipeline order
const (
	StatusReceived     = "RECEIVED"
	StatusStored       = "STORED"
	StatusFetched      = "FETCHED"
	StatusConverting   = "CONVERTING"
	StatusSegmenting   = "SEGMENTING"
	StatusTranscribing = "TRANSCRIBING"
	StatusAssembling   = "ASSEMBLING"
	StatusSummarizing  = "SUMMARIZING"
	StatusDelivering   = "DELIVERING"
	StatusDone         = "DONE"
	StatusFailed       = "FAILED"
)

// Window is one planned slice of the audio timeline. Windows are contiguous,
// non-overlapping and cover the full source duration.
type Window struct {
	Index   int
	Start   float64 // seconds from the beginning of the source
	Seconds float64
}

// AudioChunk is a cut window written to disk, ready for transcription.
type AudioChunk struct {
	Index   int
	Path    string
	Start   float64
	Seconds float64
}

// TranscriptChunk is the transcription of a single audio chunk. Text is the
// empty string, never absent, when the chunk carried no recognizable speech.
type TranscriptChunk struct {
	Index int
	Text  string
}

// MeetingMinutes holds the four analysis dimensions produced from a
// transcript. Each field is the in-order join of that dimension's per-chunk
// results.
type MeetingMinutes struct {
	AbstractSummary string
	KeyPoints       string
	ActionItems     string
	Sentiment       string
}

// PendingUpload is a stored asset awaiting validation, as recorded by the
// blob store at intake time.
type PendingUpload struct {
	Token     string
	Email     string
	Extension string
	LocalPath string
	CreatedAt time.Time
}
