package metrics

import (
	"sort"
	"time"

	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// ClosureCount is one closure reason's share of closed sessions, with the
// mean duration, message count and rating of the sessions behind it.
// AvgRating covers rated sessions only; RatedCount == 0 marks it absent.
type ClosureCount struct {
	Motive             types.CloseMotive `json:"motive"`
	Count              int               `json:"count"`
	Percent            float64           `json:"percent"`
	AvgDurationSeconds float64           `json:"avg_duration_seconds"`
	AvgMessages        float64           `json:"avg_messages"`
	RatedCount         int               `json:"rated_count"`
	AvgRating          float64           `json:"avg_rating"`
}

// ClosureReport breaks sessions down by closure reason, with the unknown
// category explicit rather than dropped.
type ClosureReport struct {
	Total   int            `json:"total"`
	Reasons []ClosureCount `json:"reasons"`
}

// ClosureBreakdown counts sessions per closure reason within the range.
func ClosureBreakdown(sessions []types.Session, r types.DateRange) (ClosureReport, error) {
	if err := r.Validate(); err != nil {
		return ClosureReport{}, err
	}
	type acc struct {
		count     int
		seconds   float64
		messages  int
		rated     int
		ratingSum int
	}
	byMotive := make(map[types.CloseMotive]*acc)
	total := 0
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		a, ok := byMotive[s.CloseMotive]
		if !ok {
			a = &acc{}
			byMotive[s.CloseMotive] = a
		}
		a.count++
		a.seconds += s.TotalDuration.Seconds()
		a.messages += s.MessageCount
		if s.Rating != nil {
			a.rated++
			a.ratingSum += *s.Rating
		}
		total++
	}
	report := ClosureReport{Total: total}
	for motive, a := range byMotive {
		c := ClosureCount{
			Motive:             motive,
			Count:              a.count,
			AvgDurationSeconds: a.seconds / float64(a.count),
			AvgMessages:        float64(a.messages) / float64(a.count),
			RatedCount:         a.rated,
		}
		if total > 0 {
			c.Percent = float64(a.count) / float64(total) * 100
		}
		if a.rated > 0 {
			c.AvgRating = float64(a.ratingSum) / float64(a.rated)
		}
		report.Reasons = append(report.Reasons, c)
	}
	sort.Slice(report.Reasons, func(i, j int) bool {
		if report.Reasons[i].Count != report.Reasons[j].Count {
			return report.Reasons[i].Count > report.Reasons[j].Count
		}
		return report.Reasons[i].Motive < report.Reasons[j].Motive
	})
	return report, nil
}

// PluginCount is one plugin connection's distinct-session share.
type PluginCount struct {
	Label    string  `json:"label"`
	Sessions int     `json:"sessions"`
	Percent  float64 `json:"percent"`
}

// BreakdownReport covers the channel/type dimension: message count per type,
// session count per channel with the mean messages-per-session ratio, and
// distinct sessions per plugin connection.
type BreakdownReport struct {
	MessagesByType          map[types.MessageType]int `json:"messages_by_type"`
	SessionsByChannel       map[string]int            `json:"sessions_by_channel"`
	MsgsPerSessionByChannel map[string]float64        `json:"msgs_per_session_by_channel"`
	Plugins                 []PluginCount             `json:"plugins"`
}

// ChannelTypeBreakdown computes the channel/type breakdown within the range.
// Sessions without a channel fall into the "unknown" channel bucket.
func ChannelTypeBreakdown(messages []types.Message, sessions []types.Session, r types.DateRange) (BreakdownReport, error) {
	if err := r.Validate(); err != nil {
		return BreakdownReport{}, err
	}
	report := BreakdownReport{
		MessagesByType:          make(map[types.MessageType]int),
		SessionsByChannel:       make(map[string]int),
		MsgsPerSessionByChannel: make(map[string]float64),
	}
	for _, m := range messages {
		if !r.Contains(m.CreatedAt) {
			continue
		}
		report.MessagesByType[m.Type]++
	}
	plugins := make(map[string]int)
	pluginTotal := 0
	channelMessages := make(map[string]int)
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		ch := s.Channel
		if ch == "" {
			ch = "unknown"
		}
		report.SessionsByChannel[ch]++
		channelMessages[ch] += s.MessageCount
		if s.PluginConnectionLabel != "" {
			plugins[s.PluginConnectionLabel]++
			pluginTotal++
		}
	}
	for ch, n := range report.SessionsByChannel {
		report.MsgsPerSessionByChannel[ch] = float64(channelMessages[ch]) / float64(n)
	}
	for label, n := range plugins {
		p := PluginCount{Label: label, Sessions: n}
		if pluginTotal > 0 {
			p.Percent = float64(n) / float64(pluginTotal) * 100
		}
		report.Plugins = append(report.Plugins, p)
	}
	sort.Slice(report.Plugins, func(i, j int) bool {
		if report.Plugins[i].Sessions != report.Plugins[j].Sessions {
			return report.Plugins[i].Sessions > report.Plugins[j].Sessions
		}
		return report.Plugins[i].Label < report.Plugins[j].Label
	})
	return report, nil
}

// DurationBand groups sessions into a total-duration bucket with the mean
// rating of the rated sessions inside it.
type DurationBand struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	RatedCount int     `json:"rated_count"`
	AvgRating  float64 `json:"avg_rating"`
}

var durationBands = []struct {
	label string
	upper time.Duration
}{
	{"0-5min", 5 * time.Minute},
	{"5-15min", 15 * time.Minute},
	{"15-30min", 30 * time.Minute},
	{"30-60min", time.Hour},
	{"60min+", 1<<63 - 1},
}

// DurationBandAnalysis buckets sessions by total duration and reports how
// ratings track session length.
func DurationBandAnalysis(sessions []types.Session, r types.DateRange) ([]DurationBand, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := make([]DurationBand, len(durationBands))
	sums := make([]int, len(durationBands))
	for i, b := range durationBands {
		out[i].Label = b.label
	}
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		for i, b := range durationBands {
			if s.TotalDuration <= b.upper {
				out[i].Count++
				if s.Rating != nil {
					out[i].RatedCount++
					sums[i] += *s.Rating
				}
				break
			}
		}
	}
	for i := range out {
		if out[i].RatedCount > 0 {
			out[i].AvgRating = float64(sums[i]) / float64(out[i].RatedCount)
		}
	}
	return out, nil
}

// Overview mirrors the dashboard's headline counters for a range.
type Overview struct {
	TotalMessages    int       `json:"total_messages"`
	InboundMessages  int       `json:"inbound_messages"`
	OutboundMessages int       `json:"outbound_messages"`
	UniqueContacts   int       `json:"unique_contacts"`
	UniqueSessions   int       `json:"unique_sessions"`
	FirstMessageAt   time.Time `json:"first_message_at,omitempty"`
	LastMessageAt    time.Time `json:"last_message_at,omitempty"`

	TotalSessions     int     `json:"total_sessions"`
	AvgSessionMinutes float64 `json:"avg_session_minutes"`
	AvgQueueMinutes   float64 `json:"avg_queue_minutes"`
	RatedSessions     int     `json:"rated_sessions"`
	AvgRating         float64 `json:"avg_rating"`
	UniqueOperators   int     `json:"unique_operators"`
}

// ComputeOverview produces the summary stats block.
func ComputeOverview(messages []types.Message, sessions []types.Session, r types.DateRange) (Overview, error) {
	if err := r.Validate(); err != nil {
		return Overview{}, err
	}
	var o Overview
	contacts := make(map[string]bool)
	msgSessions := make(map[string]bool)
	for _, m := range messages {
		if !r.Contains(m.CreatedAt) {
			continue
		}
		o.TotalMessages++
		switch m.Direction {
		case types.DirectionInbound:
			o.InboundMessages++
		case types.DirectionOutbound:
			o.OutboundMessages++
		}
		if m.ContactID != "" {
			contacts[m.ContactID] = true
		}
		if m.SessionID != "" {
			msgSessions[m.SessionID] = true
		}
		if o.FirstMessageAt.IsZero() || m.CreatedAt.Before(o.FirstMessageAt) {
			o.FirstMessageAt = m.CreatedAt
		}
		if m.CreatedAt.After(o.LastMessageAt) {
			o.LastMessageAt = m.CreatedAt
		}
	}
	o.UniqueContacts = len(contacts)
	o.UniqueSessions = len(msgSessions)

	operators := make(map[string]bool)
	var totalMin, queueMin float64
	ratingSum := 0
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		o.TotalSessions++
		totalMin += s.TotalDuration.Minutes()
		queueMin += s.QueueDuration.Minutes()
		if s.Rating != nil {
			o.RatedSessions++
			ratingSum += *s.Rating
		}
		if s.Assigned() {
			operators[s.OperatorID] = true
		}
	}
	o.UniqueOperators = len(operators)
	if o.TotalSessions > 0 {
		o.AvgSessionMinutes = totalMin / float64(o.TotalSessions)
		o.AvgQueueMinutes = queueMin / float64(o.TotalSessions)
	}
	if o.RatedSessions > 0 {
		o.AvgRating = float64(ratingSum) / float64(o.RatedSessions)
	}
	return o, nil
}
