package posts

import (
	"strings"

	"github.com/eringen/spacetraveling/richtext"
)

// DefaultWordsPerMinute is the assumed reading speed.
const DefaultWordsPerMinute = 200

// ReadingPolicy controls reading time estimation. MinimumMinutes is applied
// after rounding; 0 lets empty content estimate 0 minutes.
type ReadingPolicy struct {
	WordsPerMinute int
	MinimumMinutes int
}

// WordCount counts whitespace-separated words across all section bodies.
func WordCount(sections []Section) int {
	return len(strings.Fields(richtext.AsText(Body(sections))))
}

// Minutes returns ceil(words / WordsPerMinute), floored at MinimumMinutes.
func (p ReadingPolicy) Minutes(sections []Section) int {
	wpm := p.WordsPerMinute
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	words := WordCount(sections)
	minutes := (words + wpm - 1) / wpm
	if minutes < p.MinimumMinutes {
		minutes = p.MinimumMinutes
	}
	return minutes
}
