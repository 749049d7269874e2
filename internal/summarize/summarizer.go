package summarize

import (
	"context"
	"strings"
	"sync"

	"github.com/talktotext/talktotext/internal/types"
)

// Analyzer is the language-model capability behind one analysis call: a fixed
// role instruction applied to one chunk of transcript text.
type Analyzer interface {
	Analyze(ctx context.Context, instruction, content string) (string, error)
}

type dimension struct {
	name        string
	instruction string
	assign      func(*types.MeetingMinutes, string)
}

var dimensions = []dimension{
	{"abstract_summary", abstractSummaryPrompt, func(m *types.MeetingMinutes, v string) { m.AbstractSummary = v }},
	{"key_points", keyPointsPrompt, func(m *types.MeetingMinutes, v string) { m.KeyPoints = v }},
	{"action_items", actionItemsPrompt, func(m *types.MeetingMinutes, v string) { m.ActionItems = v }},
	{"sentiment", sentimentPrompt, func(m *types.MeetingMinutes, v string) { m.Sentiment = v }},
}

// Summarizer produces meeting minutes from a transcript. The transcript is
// re-chunked into fixed character windows because the analysis capability has
// its own input limit, independent of the audio chunk limit. Each chunk is
// analyzed in isolation and the per-chunk results are joined in chunk order,
// which can understate cross-chunk context; callers needing cross-chunk
// coherence should post-process.
type Summarizer struct {
	analyzer   Analyzer
	chunkChars int
}

func NewSummarizer(analyzer Analyzer, chunkChars int) *Summarizer {
	return &Summarizer{
		analyzer:   analyzer,
		chunkChars: chunkChars,
	}
}

// Summarize runs the four dimension passes concurrently. A failed chunk in
// any dimension fails the whole call; no partial minutes are returned.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (types.MeetingMinutes, error) {
	chunks := SplitChunks(transcript, s.chunkChars)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		minutes types.MeetingMinutes
		errList = make([]error, 0, len(dimensions))
	)

	wg.Add(len(dimensions))
	for _, dim := range dimensions {
		go func(d dimension) {
			defer wg.Done()
			joined, err := s.analyzeDimension(ctx, d, chunks)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errList = append(errList, err)
				return
			}
			d.assign(&minutes, joined)
		}(dim)
	}
	wg.Wait()

	if len(errList) > 0 {
		return types.MeetingMinutes{}, errList[0]
	}
	return minutes, nil
}

// analyzeDimension runs one dimension over every chunk in order and joins the
// results with a single space.
func (s *Summarizer) analyzeDimension(ctx context.Context, d dimension, chunks []string) (string, error) {
	results := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		text, err := s.analyzer.Analyze(ctx, d.instruction, chunk)
		if err != nil {
			return "", &types.AnalysisError{Dimension: d.name, Chunk: i, Err: err}
		}
		results = append(results, text)
	}
	return strings.Join(results, " "), nil
}

// SplitChunks slices text into windows of at most chunkChars characters. The
// split is rune-based so a window never cuts a multi-byte character in half.
func SplitChunks(text string, chunkChars int) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+chunkChars-1)/chunkChars)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
