package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomazkrause/dashboard-cx/internal/metrics"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

func TestTopRatedOperatorWithDeterministicTieBreaks(t *testing.T) {
	sc := metrics.ScorecardReport{Operators: []metrics.OperatorScorecard{
		{OperatorID: "op-b", Sessions: 10, RatedSessions: 5, AvgRating: 4.8},
		{OperatorID: "op-a", Sessions: 10, RatedSessions: 6, AvgRating: 4.8},
		{OperatorID: "op-c", Sessions: 30, RatedSessions: 8, AvgRating: 4.2},
	}}

	h := Summarize(Inputs{Scorecards: sc, MinSample: 1})
	require.NotNil(t, h.TopRatedOperator)
	// equal rating and session count: lexicographically smaller ID wins
	assert.Equal(t, "op-a", h.TopRatedOperator.OperatorID)
	assert.Equal(t, 4.8, h.TopRatedOperator.AvgRating)
}

func TestTopRatedTieBrokenBySessionCountFirst(t *testing.T) {
	sc := metrics.ScorecardReport{Operators: []metrics.OperatorScorecard{
		{OperatorID: "op-a", Sessions: 5, RatedSessions: 5, AvgRating: 4.5},
		{OperatorID: "op-b", Sessions: 9, RatedSessions: 5, AvgRating: 4.5},
	}}

	h := Summarize(Inputs{Scorecards: sc, MinSample: 1})
	require.NotNil(t, h.TopRatedOperator)
	assert.Equal(t, "op-b", h.TopRatedOperator.OperatorID)
}

func TestOperatorWithoutRatingsExcludedFromTopRated(t *testing.T) {
	sc := metrics.ScorecardReport{Operators: []metrics.OperatorScorecard{
		{OperatorID: "op-a", Sessions: 50, RatedSessions: 0},
	}}

	h := Summarize(Inputs{Scorecards: sc, MinSample: 1})
	assert.Nil(t, h.TopRatedOperator)
	assert.NotEmpty(t, h.DataNotes)
}

func TestMostEfficientNeedsMeasuredHandleTime(t *testing.T) {
	sc := metrics.ScorecardReport{Operators: []metrics.OperatorScorecard{
		{OperatorID: "op-a", Sessions: 100, HandleHours: 0}, // all zero-duration
		{OperatorID: "op-b", Sessions: 6, HandleHours: 2, SessionsPerHour: 3},
	}}

	h := Summarize(Inputs{Scorecards: sc})
	require.NotNil(t, h.MostEfficientOperator)
	assert.Equal(t, "op-b", h.MostEfficientOperator.OperatorID)
	assert.Equal(t, 3.0, h.MostEfficientOperator.SessionsPerHour)
}

func TestMostEfficientHonorsMinSample(t *testing.T) {
	sc := metrics.ScorecardReport{Operators: []metrics.OperatorScorecard{
		// one 30-second session: huge ratio, tiny sample
		{OperatorID: "op-a", Sessions: 1, HandleHours: 30.0 / 3600, SessionsPerHour: 120},
		{OperatorID: "op-b", Sessions: 8, HandleHours: 2, SessionsPerHour: 4},
	}}

	h := Summarize(Inputs{Scorecards: sc, MinSample: 3})
	require.NotNil(t, h.MostEfficientOperator)
	assert.Equal(t, "op-b", h.MostEfficientOperator.OperatorID)

	h = Summarize(Inputs{Scorecards: sc, MinSample: 1})
	require.NotNil(t, h.MostEfficientOperator)
	assert.Equal(t, "op-a", h.MostEfficientOperator.OperatorID)
}

func TestPeakDemandHour(t *testing.T) {
	var vol metrics.Volume
	vol.Total = 60
	vol.ByHour[9].Total = 10
	vol.ByHour[10].Total = 30
	vol.ByHour[14].Total = 20

	h := Summarize(Inputs{Volume: vol})
	require.NotNil(t, h.PeakHour)
	assert.Equal(t, 10, h.PeakHour.Hour)
	assert.Equal(t, 30, h.PeakHour.Messages)
	assert.Contains(t, h.PeakHours, 10)
	assert.NotContains(t, h.PeakHours, 9)
}

func TestNegativeRateRequiresMinSample(t *testing.T) {
	sent := metrics.SentimentReport{Classified: 3, NegativeRate: 1.0 / 3.0}

	h := Summarize(Inputs{Sentiment: sent, MinSample: 5})
	assert.Nil(t, h.NegativeSentiment)

	h = Summarize(Inputs{Sentiment: sent, MinSample: 3})
	require.NotNil(t, h.NegativeSentiment)
	assert.InDelta(t, 33.33, h.NegativeSentiment.Percent, 0.01)
	assert.Equal(t, 3, h.NegativeSentiment.Population)
}

func TestLoyaltyDistributionAlwaysPresent(t *testing.T) {
	contacts := []types.Contact{
		{ContactID: "c1", SessionCount: 1, Tier: types.TierSingle},
		{ContactID: "c2", SessionCount: 12, Tier: types.TierFrequent},
	}

	h := Summarize(Inputs{Contacts: contacts})
	assert.Equal(t, 1, h.LoyaltyDistribution[types.TierSingle])
	assert.Equal(t, 1, h.LoyaltyDistribution[types.TierFrequent])
}

func TestEmptyInputsDegradeGracefully(t *testing.T) {
	h := Summarize(Inputs{})
	assert.Nil(t, h.TopRatedOperator)
	assert.Nil(t, h.MostEfficientOperator)
	assert.Nil(t, h.PeakHour)
	assert.Nil(t, h.NegativeSentiment)
	assert.Len(t, h.DataNotes, 4)
}

func TestLoadReportPassesThrough(t *testing.T) {
	load := &types.LoadReport{RunID: "r1"}
	h := Summarize(Inputs{Load: load})
	assert.Same(t, load, h.Load)
}
