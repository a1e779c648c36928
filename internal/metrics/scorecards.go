package metrics

import (
	"sort"

	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// OperatorScorecard aggregates one operator's sessions within a range.
// AvgRating is computed only over rated sessions; RatedSessions == 0 means
// the operator has no rating signal at all, not a rating of zero.
type OperatorScorecard struct {
	OperatorID       string  `json:"operator_id"`
	Sessions         int     `json:"sessions"`
	RatedSessions    int     `json:"rated_sessions"`
	AvgRating        float64 `json:"avg_rating"`
	SatisfactionRate float64 `json:"satisfaction_rate"` // fraction of rated sessions at/above threshold
	AvgHandleSeconds float64 `json:"avg_handle_seconds"`
	AvgQueueSeconds  float64 `json:"avg_queue_seconds"`
	HandleHours      float64 `json:"handle_hours"`
	SessionsPerHour  float64 `json:"sessions_per_hour"`
	TotalMessages    int     `json:"total_messages"`
}

// ScorecardReport holds per-operator scorecards plus the count of sessions
// that had no operator assigned. Unassigned sessions appear nowhere else.
type ScorecardReport struct {
	Operators  []OperatorScorecard `json:"operators"`
	Unassigned int                 `json:"unassigned"`
}

// Operator returns the scorecard for an operator ID, if present.
func (r ScorecardReport) Operator(id string) (OperatorScorecard, bool) {
	for _, sc := range r.Operators {
		if sc.OperatorID == id {
			return sc, true
		}
	}
	return OperatorScorecard{}, false
}

// OperatorScorecards computes per-operator performance over sessions opened
// within the range. satisfactionThreshold is the minimum rating counted as a
// satisfied session. Efficiency is sessions per handled hour; operators whose
// sessions carry no measured handle time get zero and are excluded from
// efficiency rankings downstream.
func OperatorScorecards(sessions []types.Session, r types.DateRange, satisfactionThreshold int) (ScorecardReport, error) {
	if err := r.Validate(); err != nil {
		return ScorecardReport{}, err
	}

	type acc struct {
		sessions      int
		ratingSum     int
		rated         int
		satisfied     int
		handleSeconds float64
		handled       int
		queueSeconds  float64
		messages      int
	}
	byOp := make(map[string]*acc)
	report := ScorecardReport{}

	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		if !s.Assigned() {
			report.Unassigned++
			continue
		}
		a, ok := byOp[s.OperatorID]
		if !ok {
			a = &acc{}
			byOp[s.OperatorID] = a
		}
		a.sessions++
		a.messages += s.MessageCount
		a.queueSeconds += s.QueueDuration.Seconds()
		if s.ManualDuration > 0 {
			a.handleSeconds += s.ManualDuration.Seconds()
			a.handled++
		}
		if s.Rating != nil {
			a.rated++
			a.ratingSum += *s.Rating
			if *s.Rating >= satisfactionThreshold {
				a.satisfied++
			}
		}
	}

	for op, a := range byOp {
		sc := OperatorScorecard{
			OperatorID:    op,
			Sessions:      a.sessions,
			RatedSessions: a.rated,
			TotalMessages: a.messages,
			HandleHours:   a.handleSeconds / 3600,
		}
		if a.rated > 0 {
			sc.AvgRating = float64(a.ratingSum) / float64(a.rated)
			sc.SatisfactionRate = float64(a.satisfied) / float64(a.rated)
		}
		if a.handled > 0 {
			sc.AvgHandleSeconds = a.handleSeconds / float64(a.handled)
		}
		if a.sessions > 0 {
			sc.AvgQueueSeconds = a.queueSeconds / float64(a.sessions)
		}
		if sc.HandleHours > 0 {
			sc.SessionsPerHour = float64(a.sessions) / sc.HandleHours
		}
		report.Operators = append(report.Operators, sc)
	}

	sort.Slice(report.Operators, func(i, j int) bool {
		if report.Operators[i].Sessions != report.Operators[j].Sessions {
			return report.Operators[i].Sessions > report.Operators[j].Sessions
		}
		return report.Operators[i].OperatorID < report.Operators[j].OperatorID
	})
	return report, nil
}
