package transcription

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talktotext/talktotext/internal/types"
)

// Assemble joins completed chunk transcripts into the canonical transcript.
// Every sequence index in [0, chunkCount) must be present exactly once;
// completion order does not matter. The join is deterministic: sort by index,
// concatenate texts with a single space.
func Assemble(chunks []types.TranscriptChunk, chunkCount int) (string, error) {
	seen := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		if c.Index < 0 || c.Index >= chunkCount {
			return "", fmt.Errorf("%w: index %d outside [0,%d)", types.ErrIncompleteTranscript, c.Index, chunkCount)
		}
		if seen[c.Index] {
			return "", fmt.Errorf("%w: duplicate index %d", types.ErrIncompleteTranscript, c.Index)
		}
		seen[c.Index] = true
	}
	if len(seen) != chunkCount {
		for i := 0; i < chunkCount; i++ {
			if !seen[i] {
				return "", fmt.Errorf("%w: index %d missing", types.ErrIncompleteTranscript, i)
			}
		}
	}

	ordered := make([]types.TranscriptChunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	texts := make([]string, len(ordered))
	for i, c := range ordered {
		texts[i] = c.Text
	}
	return strings.Join(texts, " "), nil
}
