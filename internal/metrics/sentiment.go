package metrics

import (
	"github.com/thomazkrause/dashboard-cx/internal/classifier"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

const negativeSampleCap = 10

// SentimentCount per bucket.
type SentimentCount struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// SentimentReport aggregates the classifier's per-message tags over inbound
// customer messages. Excluded messages (no textual content) are not part of
// Classified. KeywordHits records which lexicon entries fired and how often,
// keeping the heuristic auditable.
type SentimentReport struct {
	Classified     int                       `json:"classified"`
	Counts         SentimentCount            `json:"counts"`
	NegativeRate   float64                   `json:"negative_rate"` // fraction of classified
	ByDate         map[string]SentimentCount `json:"by_date"`
	KeywordHits    map[string]int            `json:"keyword_hits"`
	SampleNegative []string                  `json:"sample_negative,omitempty"`
}

// SentimentBreakdown classifies inbound messages in range with the supplied
// strategy. The strategy is pure, so the result is fully determined by the
// message table and the range.
func SentimentBreakdown(messages []types.Message, r types.DateRange, strategy classifier.Strategy) (SentimentReport, error) {
	if err := r.Validate(); err != nil {
		return SentimentReport{}, err
	}
	report := SentimentReport{
		ByDate:      make(map[string]SentimentCount),
		KeywordHits: make(map[string]int),
	}
	for _, m := range messages {
		if !r.Contains(m.CreatedAt) || m.Direction != types.DirectionInbound {
			continue
		}
		res, ok := strategy.Classify(m)
		if !ok {
			continue
		}
		report.Classified++
		day := report.ByDate[m.Date]
		switch res.Sentiment {
		case classifier.SentimentPositive:
			report.Counts.Positive++
			day.Positive++
		case classifier.SentimentNegative:
			report.Counts.Negative++
			day.Negative++
			if len(report.SampleNegative) < negativeSampleCap {
				report.SampleNegative = append(report.SampleNegative, m.Content)
			}
		default:
			report.Counts.Neutral++
			day.Neutral++
		}
		report.ByDate[m.Date] = day
		for _, kw := range res.Matched {
			report.KeywordHits[kw]++
		}
	}
	if report.Classified > 0 {
		report.NegativeRate = float64(report.Counts.Negative) / float64(report.Classified)
	}
	return report, nil
}
