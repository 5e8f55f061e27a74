package scoring

import (
	"strings"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

var segmentBreaks = map[rune]bool{
	'،':  true,
	'؛':  true,
	'؟':  true,
	'۔':  true,
	'.':  true,
	'!':  true,
	'?':  true,
	'\n': true,
	'\r': true,
}

// SegmentTranscript splits a free-form transcript on sentence punctuation and
// line breaks. Segments longer than maxWords words are cut into windows of
// chunkWords words. Empty segments are dropped.
func SegmentTranscript(transcript string, maxWords, chunkWords int) []string {
	parts := strings.FieldsFunc(transcript, func(r rune) bool {
		return segmentBreaks[r]
	})

	var segments []string
	for _, part := range parts {
		words := strings.Fields(part)
		if len(words) == 0 {
			continue
		}
		if len(words) <= maxWords {
			segments = append(segments, strings.Join(words, " "))
			continue
		}
		for start := 0; start < len(words); start += chunkWords {
			end := min(start+chunkWords, len(words))
			segments = append(segments, strings.Join(words[start:end], " "))
		}
	}
	return segments
}

// MatchAyahs finds, for every transcript segment, the most similar ayah of
// the corpus. A match is kept only when its score reaches the configured
// threshold. When assignment is non-nil each result records whether the
// matched ayah falls inside it.
//
// The scan is linear in the corpus size per segment, so this is meant for
// exploring transcripts, not for grading submissions.
func (e *Engine) MatchAyahs(transcript string, corpus []domain.VerseRecord, assignment *domain.AssignmentRange) []domain.MatchResult {
	normalized := make([]string, len(corpus))
	for i, v := range corpus {
		normalized[i] = e.Normalize(v.Text)
	}

	segments := SegmentTranscript(transcript, e.cfg.MaxSegmentWords, e.cfg.ChunkWords)
	results := make([]domain.MatchResult, 0, len(segments))
	for _, segment := range segments {
		norm := e.Normalize(segment)
		if norm == "" {
			continue
		}

		best, bestScore := -1, -1.0
		for i := range corpus {
			if score := similarity(norm, normalized[i]); score > bestScore {
				best, bestScore = i, score
			}
		}

		result := domain.MatchResult{Segment: segment, NormalizedSegment: norm}
		if best >= 0 {
			result.Score = bestScore
		}
		if best >= 0 && bestScore >= e.cfg.MatchThreshold {
			match := corpus[best]
			result.Match = &match
			result.InAssignment = assignment != nil && assignment.Contains(match.Reference)
		}
		results = append(results, result)
	}
	return results
}
