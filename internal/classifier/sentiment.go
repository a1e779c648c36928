package classifier

import (
	"strings"

	"github.com/thomazkrause/dashboard-cx/internal/config"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// Sentiment tag applied to a classified message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Result carries the tag plus the keywords that fired, so every
// classification is auditable.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Matched   []string  `json:"matched,omitempty"`
}

// Strategy classifies one message. The boolean is false when the message is
// excluded from classification entirely (no textual content), as opposed to
// being classified neutral. Implementations must be pure: identical content
// always yields an identical result.
type Strategy interface {
	Classify(m types.Message) (Result, bool)
}

// Lexicon is the keyword-based strategy: case-insensitive substring matching
// against configured negative and positive indicator lists, with the tag
// decided by which side matched more.
type Lexicon struct {
	positive []string
	negative []string
}

func NewLexicon(lex config.Lexicon) *Lexicon {
	return &Lexicon{
		positive: lowerAll(lex.Positive),
		negative: lowerAll(lex.Negative),
	}
}

func (l *Lexicon) Classify(m types.Message) (Result, bool) {
	if !classifiable(m) {
		return Result{}, false
	}
	text := strings.ToLower(m.Content)

	var res Result
	pos, neg := 0, 0
	for _, kw := range l.negative {
		if strings.Contains(text, kw) {
			neg++
			res.Matched = append(res.Matched, kw)
		}
	}
	for _, kw := range l.positive {
		if strings.Contains(text, kw) {
			pos++
			res.Matched = append(res.Matched, kw)
		}
	}

	switch {
	case neg > pos:
		res.Sentiment = SentimentNegative
	case pos > neg:
		res.Sentiment = SentimentPositive
	default:
		res.Sentiment = SentimentNeutral
	}
	return res, true
}

// classifiable excludes messages without textual content: file and event
// payloads, and text rows whose content is blank. They are not defaulted to
// neutral; they simply do not participate.
func classifiable(m types.Message) bool {
	switch m.Type {
	case types.MessageFile, types.MessageEvent, types.MessageImage,
		types.MessageAudio, types.MessageVideo:
		return false
	}
	return strings.TrimSpace(m.Content) != ""
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
