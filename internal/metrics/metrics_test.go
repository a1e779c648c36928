package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomazkrause/dashboard-cx/internal/classifier"
	"github.com/thomazkrause/dashboard-cx/internal/config"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

func msg(id, session string, dir types.Direction, content string, at time.Time) types.Message {
	return types.Message{
		MessageID: id,
		SessionID: session,
		ContactID: "c-" + session,
		Direction: dir,
		Type:      types.MessageText,
		Content:   content,
		CreatedAt: at,
		Date:      at.UTC().Format("2006-01-02"),
		Hour:      at.UTC().Hour(),
		Weekday:   (int(at.UTC().Weekday()) + 6) % 7,
	}
}

func ratedSession(id, operator string, rating int, total time.Duration, motive string, at time.Time) types.Session {
	return types.Session{
		SessionID:      id,
		OperatorID:     operator,
		Rating:         &rating,
		TotalDuration:  total,
		ManualDuration: total / 2,
		QueueDuration:  total / 10,
		CloseMotive:    types.CloseMotive(motive),
		OpenedAt:       at,
		Date:           at.UTC().Format("2006-01-02"),
		Hour:           at.UTC().Hour(),
	}
}

var t0 = time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)

func TestScenarioVolumeScorecardSentiment(t *testing.T) {
	messages := []types.Message{
		msg("m1", "s1", types.DirectionInbound, "great service", t0),
		msg("m2", "s1", types.DirectionOutbound, "", t0.Add(5*time.Minute)),
	}
	sessions := []types.Session{
		ratedSession("s1", "op1", 5, 300*time.Second, "resolved", t0),
	}

	vol, err := MessageVolume(messages, types.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, vol.ByHour[10].Total)
	assert.Equal(t, 1, vol.ByHour[10].Inbound)
	assert.Equal(t, 1, vol.ByHour[10].Outbound)

	sc, err := OperatorScorecards(sessions, types.DateRange{}, 4)
	require.NoError(t, err)
	op1, ok := sc.Operator("op1")
	require.True(t, ok)
	assert.Equal(t, 5.0, op1.AvgRating)

	strategy := classifier.NewLexicon(config.Lexicon{
		Positive: []string{"great"},
		Negative: []string{"problem"},
	})
	res, ok := strategy.Classify(messages[0])
	require.True(t, ok)
	assert.Equal(t, classifier.SentimentPositive, res.Sentiment)
	_, ok = strategy.Classify(messages[1]) // empty content: excluded
	assert.False(t, ok)
}

func TestVolumeByDateSumsToTotal(t *testing.T) {
	var messages []types.Message
	for i := 0; i < 50; i++ {
		dir := types.DirectionInbound
		if i%3 == 0 {
			dir = types.DirectionOutbound
		}
		messages = append(messages, msg(
			fmt.Sprintf("m%d", i), fmt.Sprintf("s%d", i%7), dir, "x",
			t0.AddDate(0, 0, i%5).Add(time.Duration(i%24)*time.Hour),
		))
	}
	r := types.DateRange{Start: t0, End: t0.AddDate(0, 0, 3)}

	vol, err := MessageVolume(messages, r)
	require.NoError(t, err)

	sum := 0
	for _, c := range vol.ByDate {
		sum += c.Total
	}
	assert.Equal(t, vol.Total, sum, "per-date counts must sum to range total")

	hourSum := 0
	for _, c := range vol.ByHour {
		hourSum += c.Total
	}
	assert.Equal(t, vol.Total, hourSum)
}

func TestInvalidRangeIsRejectedEverywhere(t *testing.T) {
	bad := types.DateRange{Start: t0, End: t0.AddDate(0, 0, -1)}

	_, err := MessageVolume(nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = OperatorScorecards(nil, bad, 4)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = LatencyDistributions(nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = ResponseTimeByPeriod(nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = ClosureBreakdown(nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = ChannelTypeBreakdown(nil, nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
	_, err = ComputeOverview(nil, nil, bad)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
}

func TestSameDayRangeIsValid(t *testing.T) {
	r := types.DateRange{Start: t0.Add(10 * time.Hour), End: t0}
	// same calendar day even though the start instant is later
	assert.NoError(t, r.Validate())
}

func TestUnassignedSessionsBucketedSeparately(t *testing.T) {
	sessions := []types.Session{
		ratedSession("s1", "op1", 4, time.Hour, "resolved", t0),
		{SessionID: "s2", OpenedAt: t0, TotalDuration: time.Hour},
		{SessionID: "s3", OpenedAt: t0},
	}

	sc, err := OperatorScorecards(sessions, types.DateRange{}, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, sc.Unassigned)
	require.Len(t, sc.Operators, 1)
	assert.Equal(t, "op1", sc.Operators[0].OperatorID)
	assert.Equal(t, 1, sc.Operators[0].Sessions)
}

func TestAllNullRatingsMeanNoRatingSignal(t *testing.T) {
	sessions := []types.Session{
		{SessionID: "s1", OperatorID: "op1", OpenedAt: t0, ManualDuration: time.Minute},
		{SessionID: "s2", OperatorID: "op1", OpenedAt: t0, ManualDuration: time.Minute},
	}
	sc, err := OperatorScorecards(sessions, types.DateRange{}, 4)
	require.NoError(t, err)
	op1, ok := sc.Operator("op1")
	require.True(t, ok)
	assert.Zero(t, op1.RatedSessions)
	assert.Zero(t, op1.AvgRating) // not a measurement: RatedSessions==0 marks it absent
}

func TestZeroHandleTimeExcludedFromEfficiency(t *testing.T) {
	sessions := []types.Session{
		{SessionID: "s1", OperatorID: "op1", OpenedAt: t0}, // zero durations
	}
	sc, err := OperatorScorecards(sessions, types.DateRange{}, 4)
	require.NoError(t, err)
	op1, _ := sc.Operator("op1")
	assert.Zero(t, op1.HandleHours)
	assert.Zero(t, op1.SessionsPerHour)
}

func TestLatencyDistributionQuantiles(t *testing.T) {
	var sessions []types.Session
	for i := 1; i <= 100; i++ {
		sessions = append(sessions, types.Session{
			SessionID:     fmt.Sprintf("s%d", i),
			QueueDuration: time.Duration(i) * time.Second,
			TotalDuration: time.Duration(i*10) * time.Second,
			OpenedAt:      t0,
		})
	}

	lat, err := LatencyDistributions(sessions, types.DateRange{})
	require.NoError(t, err)

	q := lat.QueueSeconds
	assert.Equal(t, 100, q.Count)
	assert.Equal(t, 1.0, q.Min)
	assert.Equal(t, 100.0, q.Max)
	assert.InDelta(t, 50.5, q.Mean, 1e-9)
	assert.InDelta(t, 50.5, q.Median, 1e-9)
	assert.InDelta(t, 90.1, q.P90, 1e-9)
	assert.InDelta(t, 95.05, q.P95, 1e-9)
}

func TestResponseTimeByPeriod(t *testing.T) {
	// t0 is 2025-07-20, a Sunday (weekday 6)
	sessions := []types.Session{
		{SessionID: "s1", OpenedAt: t0, Hour: 10, Weekday: 6,
			QueueDuration: 30 * time.Second, TotalDuration: 300 * time.Second},
		{SessionID: "s2", OpenedAt: t0, Hour: 10, Weekday: 6,
			QueueDuration: 90 * time.Second, TotalDuration: 500 * time.Second},
		{SessionID: "s3", OpenedAt: t0.Add(4 * time.Hour), Hour: 14, Weekday: 6,
			QueueDuration: 10 * time.Second, TotalDuration: 100 * time.Second},
	}

	rt, err := ResponseTimeByPeriod(sessions, types.DateRange{})
	require.NoError(t, err)

	h10 := rt.ByHour[10]
	assert.Equal(t, 2, h10.Sessions)
	assert.InDelta(t, 60.0, h10.QueueMean, 1e-9)
	assert.InDelta(t, 60.0, h10.QueueMedian, 1e-9)
	assert.InDelta(t, 400.0, h10.TotalMean, 1e-9)
	assert.InDelta(t, 400.0, h10.TotalMedian, 1e-9)
	assert.Equal(t, 1, rt.ByHour[14].Sessions)
	assert.Zero(t, rt.ByHour[9].Sessions)

	sun := rt.ByWeekday[6]
	assert.Equal(t, 3, sun.Sessions)
	assert.InDelta(t, 30.0, sun.QueueMedian, 1e-9)
	assert.Zero(t, rt.ByWeekday[0].Sessions)
}

func TestEmptyAggregationsAreWellDefined(t *testing.T) {
	vol, err := MessageVolume(nil, types.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, vol.Total)

	lat, err := LatencyDistributions(nil, types.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, lat.QueueSeconds.Count)
	assert.Zero(t, lat.TotalSeconds.Count)

	cl, err := ClosureBreakdown(nil, types.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, cl.Total)
	assert.Empty(t, cl.Reasons)

	o, err := ComputeOverview(nil, nil, types.DateRange{})
	require.NoError(t, err)
	assert.Zero(t, o.AvgRating)
	assert.Zero(t, o.AvgSessionMinutes)
}

func TestClosureBreakdownWithExplicitUnknown(t *testing.T) {
	sessions := []types.Session{
		ratedSession("s1", "op1", 5, time.Hour, "resolved", t0),
		ratedSession("s2", "op1", 3, time.Hour, "resolved", t0),
		ratedSession("s3", "op2", 2, time.Hour, "abandoned", t0),
		{SessionID: "s4", OpenedAt: t0, CloseMotive: types.CloseUnknown},
	}

	cl, err := ClosureBreakdown(sessions, types.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 4, cl.Total)
	require.Len(t, cl.Reasons, 3)

	resolved := cl.Reasons[0]
	assert.Equal(t, types.CloseMotive("resolved"), resolved.Motive)
	assert.InDelta(t, 50.0, resolved.Percent, 1e-9)
	assert.InDelta(t, 3600.0, resolved.AvgDurationSeconds, 1e-9)
	assert.Equal(t, 2, resolved.RatedCount)
	assert.InDelta(t, 4.0, resolved.AvgRating, 1e-9) // ratings 5 and 3

	found := false
	for _, c := range cl.Reasons {
		if c.Motive == types.CloseUnknown {
			found = true
			assert.Equal(t, 1, c.Count)
			assert.Zero(t, c.RatedCount)
			assert.Zero(t, c.AvgRating) // no rating signal, not a zero rating
		}
	}
	assert.True(t, found, "unknown motive must be reported explicitly")
}

func TestChannelTypeBreakdown(t *testing.T) {
	messages := []types.Message{
		msg("m1", "s1", types.DirectionInbound, "a", t0),
		{MessageID: "m2", SessionID: "s1", Type: types.MessageFile, CreatedAt: t0, Date: "2025-07-20"},
	}
	sessions := []types.Session{
		{SessionID: "s1", OpenedAt: t0, Channel: "whatsapp", PluginConnectionLabel: "wa-main", MessageCount: 4},
		{SessionID: "s2", OpenedAt: t0, Channel: "whatsapp", MessageCount: 2},
		{SessionID: "s3", OpenedAt: t0},
	}

	b, err := ChannelTypeBreakdown(messages, sessions, types.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.MessagesByType[types.MessageText])
	assert.Equal(t, 1, b.MessagesByType[types.MessageFile])
	assert.Equal(t, 2, b.SessionsByChannel["whatsapp"])
	assert.Equal(t, 1, b.SessionsByChannel["unknown"])
	assert.InDelta(t, 3.0, b.MsgsPerSessionByChannel["whatsapp"], 1e-9)
	assert.Zero(t, b.MsgsPerSessionByChannel["unknown"])
	require.Len(t, b.Plugins, 1)
	assert.Equal(t, "wa-main", b.Plugins[0].Label)
	assert.InDelta(t, 100.0, b.Plugins[0].Percent, 1e-9)
}

func TestSentimentBreakdownCountsInboundOnly(t *testing.T) {
	messages := []types.Message{
		msg("m1", "s1", types.DirectionInbound, "great service", t0),
		msg("m2", "s1", types.DirectionInbound, "there is a problem", t0.Add(time.Minute)),
		msg("m3", "s1", types.DirectionInbound, "hello", t0.Add(2*time.Minute)),
		msg("m4", "s1", types.DirectionOutbound, "problem noted", t0.Add(3*time.Minute)),
		msg("m5", "s1", types.DirectionInbound, "", t0.Add(4*time.Minute)), // excluded
	}
	strategy := classifier.NewLexicon(config.Lexicon{
		Positive: []string{"great"},
		Negative: []string{"problem"},
	})

	rep, err := SentimentBreakdown(messages, types.DateRange{}, strategy)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Classified)
	assert.Equal(t, 1, rep.Counts.Positive)
	assert.Equal(t, 1, rep.Counts.Neutral)
	assert.Equal(t, 1, rep.Counts.Negative)
	assert.InDelta(t, 1.0/3.0, rep.NegativeRate, 1e-9)
	assert.Equal(t, 1, rep.KeywordHits["problem"])
	assert.Equal(t, []string{"there is a problem"}, rep.SampleNegative)
}

func TestDurationBandAnalysis(t *testing.T) {
	sessions := []types.Session{
		ratedSession("s1", "op1", 5, 2*time.Minute, "resolved", t0),
		ratedSession("s2", "op1", 3, 10*time.Minute, "resolved", t0),
		ratedSession("s3", "op1", 1, 2*time.Hour, "resolved", t0),
	}
	bands, err := DurationBandAnalysis(sessions, types.DateRange{})
	require.NoError(t, err)
	require.Len(t, bands, 5)
	assert.Equal(t, "0-5min", bands[0].Label)
	assert.Equal(t, 1, bands[0].Count)
	assert.Equal(t, 5.0, bands[0].AvgRating)
	assert.Equal(t, 1, bands[4].Count) // 60min+
}

func TestDateRangeFiltersByCalendarDay(t *testing.T) {
	messages := []types.Message{
		msg("m1", "s1", types.DirectionInbound, "a", t0),
		msg("m2", "s2", types.DirectionInbound, "b", t0.AddDate(0, 0, 1)),
		msg("m3", "s3", types.DirectionInbound, "c", t0.AddDate(0, 0, 5)),
	}
	r := types.DateRange{Start: t0, End: t0.AddDate(0, 0, 1)}

	vol, err := MessageVolume(messages, r)
	require.NoError(t, err)
	assert.Equal(t, 2, vol.Total) // both bounds inclusive, m3 outside
}
