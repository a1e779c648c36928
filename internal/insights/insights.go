package insights

import (
	"fmt"
	"sort"

	"github.com/thomazkrause/dashboard-cx/internal/join"
	"github.com/thomazkrause/dashboard-cx/internal/metrics"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// OperatorFact names an operator headline: who, on what basis.
type OperatorFact struct {
	OperatorID      string  `json:"operator_id"`
	AvgRating       float64 `json:"avg_rating,omitempty"`
	Sessions        int     `json:"sessions"`
	SessionsPerHour float64 `json:"sessions_per_hour,omitempty"`
}

// HourFact is the peak-demand headline.
type HourFact struct {
	Hour     int `json:"hour"`
	Messages int `json:"messages"`
}

// RateFact is a percentage headline with its population size attached.
type RateFact struct {
	Percent    float64 `json:"percent"`
	Population int     `json:"population"`
}

// Headlines is the fixed-shape fact set handed to the presentation layer.
// Nil facts mean the underlying data was insufficient; the reason is listed
// in DataNotes instead of fabricating a zero.
type Headlines struct {
	TopRatedOperator      *OperatorFact             `json:"top_rated_operator,omitempty"`
	MostEfficientOperator *OperatorFact             `json:"most_efficient_operator,omitempty"`
	PeakHour              *HourFact                 `json:"peak_hour,omitempty"`
	PeakHours             []int                     `json:"peak_hours,omitempty"`
	NegativeSentiment     *RateFact                 `json:"negative_sentiment,omitempty"`
	LoyaltyDistribution   map[types.LoyaltyTier]int `json:"loyalty_distribution"`
	DataNotes             []string                  `json:"data_notes,omitempty"`
	Load                  *types.LoadReport         `json:"load,omitempty"`
}

// Inputs collects the engine and classifier outputs the summarizer reduces.
type Inputs struct {
	Scorecards metrics.ScorecardReport
	Volume     metrics.Volume
	Sentiment  metrics.SentimentReport
	Contacts   []types.Contact
	Load       *types.LoadReport

	// MinSample is the minimum number of qualifying records behind a fact.
	MinSample int
	// PeakQuantile is the hourly-volume quantile defining the peak-hour set.
	PeakQuantile float64
}

// Summarize reduces metric and classifier outputs into headline facts with
// deterministic tie-breaking. It degrades per fact: missing data drops the
// fact and records a note, it never fails.
func Summarize(in Inputs) Headlines {
	minSample := in.MinSample
	if minSample < 1 {
		minSample = 1
	}
	quantile := in.PeakQuantile
	if quantile <= 0 || quantile >= 1 {
		quantile = 0.8
	}

	h := Headlines{
		LoyaltyDistribution: join.TierDistribution(in.Contacts),
		Load:                in.Load,
	}

	h.TopRatedOperator = topRated(in.Scorecards, minSample)
	if h.TopRatedOperator == nil {
		h.DataNotes = append(h.DataNotes, "insufficient data: no operator has enough rated sessions")
	}
	h.MostEfficientOperator = mostEfficient(in.Scorecards, minSample)
	if h.MostEfficientOperator == nil {
		h.DataNotes = append(h.DataNotes, "insufficient data: no operator has enough sessions with measured handle time")
	}

	h.PeakHour, h.PeakHours = peakDemand(in.Volume, quantile)
	if h.PeakHour == nil {
		h.DataNotes = append(h.DataNotes, "insufficient data: no messages in range")
	}

	if in.Sentiment.Classified >= minSample {
		h.NegativeSentiment = &RateFact{
			Percent:    in.Sentiment.NegativeRate * 100,
			Population: in.Sentiment.Classified,
		}
	} else {
		h.DataNotes = append(h.DataNotes, fmt.Sprintf(
			"insufficient data: %d classified messages, need %d", in.Sentiment.Classified, minSample))
	}
	return h
}

// topRated picks the highest average rating among operators with at least
// minSample rated sessions. Ties go to the higher session count, then to the
// lexicographically smaller operator ID.
func topRated(sc metrics.ScorecardReport, minSample int) *OperatorFact {
	var best *metrics.OperatorScorecard
	for i := range sc.Operators {
		op := &sc.Operators[i]
		if op.RatedSessions < minSample {
			continue
		}
		if best == nil || better(op, best, func(o *metrics.OperatorScorecard) float64 { return o.AvgRating }) {
			best = op
		}
	}
	if best == nil {
		return nil
	}
	return &OperatorFact{OperatorID: best.OperatorID, AvgRating: best.AvgRating, Sessions: best.Sessions}
}

// mostEfficient picks the highest sessions-per-handled-hour among operators
// with measured handle time and at least minSample sessions; zero-duration
// sessions never enter the ratio.
func mostEfficient(sc metrics.ScorecardReport, minSample int) *OperatorFact {
	var best *metrics.OperatorScorecard
	for i := range sc.Operators {
		op := &sc.Operators[i]
		if op.HandleHours <= 0 || op.Sessions < minSample {
			continue
		}
		if best == nil || better(op, best, func(o *metrics.OperatorScorecard) float64 { return o.SessionsPerHour }) {
			best = op
		}
	}
	if best == nil {
		return nil
	}
	return &OperatorFact{OperatorID: best.OperatorID, Sessions: best.Sessions, SessionsPerHour: best.SessionsPerHour}
}

func better(a, b *metrics.OperatorScorecard, key func(*metrics.OperatorScorecard) float64) bool {
	if key(a) != key(b) {
		return key(a) > key(b)
	}
	if a.Sessions != b.Sessions {
		return a.Sessions > b.Sessions
	}
	return a.OperatorID < b.OperatorID
}

// peakDemand returns the busiest hour (ties broken toward the earlier hour)
// and the set of hours at or above the volume quantile threshold.
func peakDemand(v metrics.Volume, quantile float64) (*HourFact, []int) {
	if v.Total == 0 {
		return nil, nil
	}
	peak := HourFact{Hour: -1}
	var active []float64
	for hour, c := range v.ByHour {
		if c.Total == 0 {
			continue
		}
		active = append(active, float64(c.Total))
		if c.Total > peak.Messages {
			peak = HourFact{Hour: hour, Messages: c.Total}
		}
	}
	if peak.Hour < 0 {
		return nil, nil
	}
	sort.Float64s(active)
	threshold := metrics.Quantile(active, quantile)
	var peaks []int
	for hour, c := range v.ByHour {
		if c.Total > 0 && float64(c.Total) >= threshold {
			peaks = append(peaks, hour)
		}
	}
	return &peak, peaks
}
