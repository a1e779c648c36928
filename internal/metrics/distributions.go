package metrics

import (
	"math"
	"sort"

	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// Distribution summarizes a set of duration samples in seconds, with the
// quantile breakpoints the presentation layer needs for histograms. A zero
// Count means no eligible samples; the remaining fields are then zero and
// must not be read as measurements.
type Distribution struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
}

// LatencyReport carries the queue-wait and total-session-duration
// distributions for sessions opened within a range.
type LatencyReport struct {
	QueueSeconds Distribution `json:"queue_seconds"`
	TotalSeconds Distribution `json:"total_seconds"`
}

// LatencyDistributions computes queue and total duration distributions.
func LatencyDistributions(sessions []types.Session, r types.DateRange) (LatencyReport, error) {
	if err := r.Validate(); err != nil {
		return LatencyReport{}, err
	}
	var queue, total []float64
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		queue = append(queue, s.QueueDuration.Seconds())
		total = append(total, s.TotalDuration.Seconds())
	}
	return LatencyReport{
		QueueSeconds: Describe(queue),
		TotalSeconds: Describe(total),
	}, nil
}

// PeriodLatency summarizes queue and total durations for one time bucket.
// Sessions == 0 means the bucket is empty; the means are then zero and must
// not be read as measurements.
type PeriodLatency struct {
	Sessions    int     `json:"sessions"`
	QueueMean   float64 `json:"queue_mean_seconds"`
	QueueMedian float64 `json:"queue_median_seconds"`
	TotalMean   float64 `json:"total_mean_seconds"`
	TotalMedian float64 `json:"total_median_seconds"`
}

// ResponseTimeReport breaks queue and total durations down by hour-of-day and
// by weekday, so trends like "queues build up on Monday mornings" are visible
// without re-aggregating raw sessions.
type ResponseTimeReport struct {
	ByHour    [24]PeriodLatency `json:"by_hour"`
	ByWeekday [7]PeriodLatency  `json:"by_weekday"`
}

// ResponseTimeByPeriod computes per-hour and per-weekday queue/total duration
// stats for sessions opened within the range.
func ResponseTimeByPeriod(sessions []types.Session, r types.DateRange) (ResponseTimeReport, error) {
	if err := r.Validate(); err != nil {
		return ResponseTimeReport{}, err
	}
	var hourQueue, hourTotal [24][]float64
	var weekQueue, weekTotal [7][]float64
	for _, s := range sessions {
		if !r.Contains(s.OpenedAt) {
			continue
		}
		hourQueue[s.Hour] = append(hourQueue[s.Hour], s.QueueDuration.Seconds())
		hourTotal[s.Hour] = append(hourTotal[s.Hour], s.TotalDuration.Seconds())
		weekQueue[s.Weekday] = append(weekQueue[s.Weekday], s.QueueDuration.Seconds())
		weekTotal[s.Weekday] = append(weekTotal[s.Weekday], s.TotalDuration.Seconds())
	}
	var report ResponseTimeReport
	for h := 0; h < 24; h++ {
		report.ByHour[h] = periodStats(hourQueue[h], hourTotal[h])
	}
	for w := 0; w < 7; w++ {
		report.ByWeekday[w] = periodStats(weekQueue[w], weekTotal[w])
	}
	return report, nil
}

func periodStats(queue, total []float64) PeriodLatency {
	p := PeriodLatency{Sessions: len(queue)}
	if p.Sessions == 0 {
		return p
	}
	sort.Float64s(queue)
	sort.Float64s(total)
	p.QueueMedian = Quantile(queue, 0.5)
	p.TotalMedian = Quantile(total, 0.5)
	for i := range queue {
		p.QueueMean += queue[i]
		p.TotalMean += total[i]
	}
	p.QueueMean /= float64(p.Sessions)
	p.TotalMean /= float64(p.Sessions)
	return p
}

// Describe builds a Distribution from raw samples. The input slice is not
// modified.
func Describe(samples []float64) Distribution {
	n := len(samples)
	if n == 0 {
		return Distribution{}
	}
	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	d := Distribution{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   sum / float64(n),
		Median: Quantile(sorted, 0.5),
		P50:    Quantile(sorted, 0.5),
		P90:    Quantile(sorted, 0.9),
		P95:    Quantile(sorted, 0.95),
	}
	return d
}

// Quantile returns the q-quantile of an ascending-sorted sample using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
