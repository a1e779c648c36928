package metrics

import (
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// DirectionCount splits a bucket's message count by direction. Total also
// covers messages whose direction is unknown.
type DirectionCount struct {
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
	Total    int `json:"total"`
}

func (c *DirectionCount) add(d types.Direction) {
	switch d {
	case types.DirectionInbound:
		c.Inbound++
	case types.DirectionOutbound:
		c.Outbound++
	}
	c.Total++
}

// Volume is message volume per time bucket. Heatmap[weekday][hour] holds the
// cell counts consumed by downstream heatmap rendering.
type Volume struct {
	Total     int                       `json:"total"`
	ByDate    map[string]DirectionCount `json:"by_date"`
	ByHour    [24]DirectionCount        `json:"by_hour"`
	ByWeekday [7]DirectionCount         `json:"by_weekday"`
	Heatmap   [7][24]int                `json:"heatmap"`
}

// MessageVolume counts messages per date, hour-of-day and weekday bucket
// within the range, inbound and outbound separately. Zero eligible rows yield
// empty maps, not an error.
func MessageVolume(messages []types.Message, r types.DateRange) (Volume, error) {
	if err := r.Validate(); err != nil {
		return Volume{}, err
	}
	v := Volume{ByDate: make(map[string]DirectionCount)}
	for _, m := range messages {
		if !r.Contains(m.CreatedAt) {
			continue
		}
		v.Total++
		c := v.ByDate[m.Date]
		c.add(m.Direction)
		v.ByDate[m.Date] = c
		v.ByHour[m.Hour].add(m.Direction)
		v.ByWeekday[m.Weekday].add(m.Direction)
		v.Heatmap[m.Weekday][m.Hour]++
	}
	return v, nil
}

// SessionVolume counts distinct sessions per date and hour, derived from the
// message stream the way the dashboard's session tab does it: one session is
// attributed to the bucket of its first message in range.
func SessionVolume(messages []types.Message, r types.DateRange) (Volume, error) {
	if err := r.Validate(); err != nil {
		return Volume{}, err
	}
	v := Volume{ByDate: make(map[string]DirectionCount)}
	seen := make(map[string]bool)
	for _, m := range messages {
		if !r.Contains(m.CreatedAt) || m.SessionID == "" || seen[m.SessionID] {
			continue
		}
		seen[m.SessionID] = true
		v.Total++
		c := v.ByDate[m.Date]
		c.Total++
		v.ByDate[m.Date] = c
		v.ByHour[m.Hour].Total++
		v.ByWeekday[m.Weekday].Total++
		v.Heatmap[m.Weekday][m.Hour]++
	}
	return v, nil
}
