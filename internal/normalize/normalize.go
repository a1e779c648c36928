package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thomazkrause/dashboard-cx/internal/dataset"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// The exports carry ISO-8601 timestamps; a few older files use a space
// separator or date-only values, so parsing walks these layouts in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Messages coerces raw message rows into typed records, deriving hour,
// weekday and calendar date. Rows whose createdAt cannot be parsed are
// counted as skipped on the source report.
func Messages(t dataset.Table, rep *types.SourceReport) []types.Message {
	out := make([]types.Message, 0, len(t.Rows))
	for _, row := range t.Rows {
		created, err := ParseTime(row.Get("createdAt"))
		if err != nil {
			rep.Skip("")
			continue
		}
		m := types.Message{
			TenantID:  row.Get("tenantID"),
			ContactID: row.Get("contactID"),
			MessageID: row.Get("messageID"),
			SessionID: row.Get("sessionID"),
			Direction: ParseDirection(row.Get("messageDirection")),
			Type:      ParseMessageType(row.Get("messageKey")),
			Content:   row["messagevalue"],
			CreatedAt: created,
		}
		if updated, err := ParseTime(row.Get("updatedAt")); err == nil {
			m.UpdatedAt = updated
		}
		m.Date, m.Hour, m.Weekday = calendarFields(created)
		out = append(out, m)
	}
	return out
}

// Sessions coerces raw session rows. It serves both session sources; the
// plugin-bearing source simply fills two extra columns.
func Sessions(t dataset.Table, rep *types.SourceReport) []types.Session {
	out := make([]types.Session, 0, len(t.Rows))
	for _, row := range t.Rows {
		opened, err := ParseTime(row.Get("createdAt"))
		if err != nil {
			rep.Skip("")
			continue
		}
		queue, okQ := parseSeconds(row.Get("__sessionQueueDuration"))
		manual, okM := parseSeconds(row.Get("__sessionManualDuration"))
		total, okT := parseSeconds(row.Get("__sessionDuration"))
		if !okQ || !okM || !okT {
			// negative or garbled durations make the row unusable
			rep.Skip("")
			continue
		}
		operator := row.Get("operatorID")
		if operator == "" {
			// older exports identify operators by first name only
			operator = row.Get("operatorFirstname")
		}
		s := types.Session{
			SessionID:             row.Get("sessionID"),
			OperatorID:            operator,
			QueueDuration:         queue,
			ManualDuration:        manual,
			TotalDuration:         total,
			Rating:                parseRating(row.Get("sessionRatingStars"), rep),
			CloseMotive:           ParseCloseMotive(row.Get("closeMotive")),
			MessageCount:          parseCount(row.Get("__sessionMessagesCount")),
			OpenedAt:              opened,
			Channel:               row.Get("sessionChannel"),
			PluginConnectionLabel: row.Get("pluginConnectionLabel"),
		}
		if closed, err := ParseTime(row.Get("closedAt")); err == nil {
			s.ClosedAt = closed
		}
		if s.TotalDuration < s.ManualDuration {
			rep.Warn(fmt.Sprintf("session %s: total duration below manual duration", s.SessionID))
		}
		s.Date, s.Hour, s.Weekday = calendarFields(opened)
		out = append(out, s)
	}
	return out
}

// MergeSessions unions the base and plugin-bearing session sources by session
// ID. Base fields win; channel and plugin label come only from the plugin
// source. Sessions present only in the plugin source are kept.
func MergeSessions(base, plugins []types.Session) []types.Session {
	idx := make(map[string]int, len(base))
	out := make([]types.Session, len(base))
	copy(out, base)
	for i, s := range out {
		idx[s.SessionID] = i
	}
	for _, p := range plugins {
		if i, ok := idx[p.SessionID]; ok {
			if out[i].Channel == "" {
				out[i].Channel = p.Channel
			}
			if out[i].PluginConnectionLabel == "" {
				out[i].PluginConnectionLabel = p.PluginConnectionLabel
			}
			continue
		}
		idx[p.SessionID] = len(out)
		out = append(out, p)
	}
	return out
}

// ParseTime parses a timezone-aware instant, normalized to UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// ParseDirection maps unrecognized values to DirectionUnknown, never failing.
func ParseDirection(s string) types.Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inbound":
		return types.DirectionInbound
	case "outbound":
		return types.DirectionOutbound
	default:
		return types.DirectionUnknown
	}
}

func ParseMessageType(s string) types.MessageType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return types.MessageText
	case "file":
		return types.MessageFile
	case "event":
		return types.MessageEvent
	case "image":
		return types.MessageImage
	case "audio":
		return types.MessageAudio
	case "video":
		return types.MessageVideo
	default:
		return types.MessageUnknown
	}
}

func ParseCloseMotive(s string) types.CloseMotive {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return types.CloseUnknown
	}
	return types.CloseMotive(s)
}

// parseSeconds reads a duration expressed in source-unit seconds. Empty cells
// mean zero; negative values violate the duration invariant and fail.
func parseSeconds(s string) (time.Duration, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return time.Duration(v * float64(time.Second)), true
}

// parseRating returns nil for absent ratings. Out-of-scale values are treated
// as unrated and flagged rather than clamped into a fake measurement.
func parseRating(s string, rep *types.SourceReport) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	r := int(v)
	if r < 1 || r > 5 {
		rep.Warn(fmt.Sprintf("rating %d outside 1-5 scale, treated as unrated", r))
		return nil
	}
	return &r
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

// calendarFields derives the bucket keys used by the metrics engine.
// Weekday runs Monday=0 through Sunday=6.
func calendarFields(t time.Time) (date string, hour, weekday int) {
	t = t.UTC()
	return t.Format("2006-01-02"), t.Hour(), (int(t.Weekday()) + 6) % 7
}
