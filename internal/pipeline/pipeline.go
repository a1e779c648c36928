package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thomazkrause/dashboard-cx/internal/classifier"
	"github.com/thomazkrause/dashboard-cx/internal/config"
	"github.com/thomazkrause/dashboard-cx/internal/dataset"
	"github.com/thomazkrause/dashboard-cx/internal/insights"
	"github.com/thomazkrause/dashboard-cx/internal/join"
	"github.com/thomazkrause/dashboard-cx/internal/logger"
	"github.com/thomazkrause/dashboard-cx/internal/metrics"
	"github.com/thomazkrause/dashboard-cx/internal/normalize"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// Snapshot is one run's immutable view of the normalized data. Aggregations
// read it and return fresh results; nothing mutates it after Run returns.
type Snapshot struct {
	RunID    string            `json:"run_id"`
	LoadedAt time.Time         `json:"loaded_at"`
	Messages []types.Message   `json:"messages"`
	Sessions []types.Session   `json:"sessions"`
	Index    *join.Index       `json:"-"`
	Report   *types.LoadReport `json:"report"`
}

// Run executes load → normalize → join and returns the snapshot. A run with
// zero usable rows still completes; the load report says what happened.
func Run(cfg *config.Config) *Snapshot {
	runID := uuid.New().String()
	log := logger.New().WithRun(runID).WithField("component", "pipeline")
	start := time.Now()
	log.Info("pipeline run starting")

	report := &types.LoadReport{RunID: runID}
	loader := dataset.NewLoader(cfg, logger.New())
	msgTable, sesTable, plugTable := loader.LoadAll(report)

	msgRep := report.Source(dataset.SourceMessages, "")
	messages := normalize.Messages(msgTable, msgRep)
	msgRep.Rows = len(messages)

	sesRep := report.Source(dataset.SourceSessions, "")
	sessions := normalize.Sessions(sesTable, sesRep)
	sesRep.Rows = len(sessions)

	plugRep := report.Source(dataset.SourceSessionsPlugins, "")
	plugins := normalize.Sessions(plugTable, plugRep)
	plugRep.Rows = len(plugins)

	merged := normalize.MergeSessions(sessions, plugins)
	index := join.Build(messages, merged)
	if index.DanglingMessages > 0 {
		msgRep.Warn(fmt.Sprintf("%d messages reference sessions absent from the session sources", index.DanglingMessages))
	}

	log.WithFields(logrus.Fields{
		"messages":    len(messages),
		"sessions":    len(merged),
		"contacts":    len(index.Contacts),
		"skipped":     report.TotalSkipped(),
		"dangling":    index.DanglingMessages,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("pipeline run complete")

	return &Snapshot{
		RunID:    runID,
		LoadedAt: start,
		Messages: messages,
		Sessions: merged,
		Index:    index,
		Report:   report,
	}
}

// Results bundles every engine output for one range against one snapshot.
type Results struct {
	Range         types.DateRange            `json:"range"`
	Overview      metrics.Overview           `json:"overview"`
	Volume        metrics.Volume             `json:"volume"`
	SessionVolume metrics.Volume             `json:"session_volume"`
	Scorecards    metrics.ScorecardReport    `json:"scorecards"`
	Latency       metrics.LatencyReport      `json:"latency"`
	ResponseTimes metrics.ResponseTimeReport `json:"response_times"`
	Closure       metrics.ClosureReport      `json:"closure"`
	Breakdown     metrics.BreakdownReport    `json:"breakdown"`
	Bands         []metrics.DurationBand     `json:"duration_bands"`
	Sentiment     metrics.SentimentReport    `json:"sentiment"`
	Headlines     insights.Headlines         `json:"headlines"`
}

// ComputeAll runs every aggregation for the given range. An invalid range is
// rejected up front. Independent aggregations run in parallel; each reads the
// shared immutable snapshot and writes only its own result field, so no
// locking is needed.
func (s *Snapshot) ComputeAll(cfg *config.Config, r types.DateRange) (*Results, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	res := &Results{Range: r}
	strategy := classifier.NewLexicon(cfg.Lexicon)

	var wg sync.WaitGroup
	stages := []func(){
		func() {
			res.Volume, _ = metrics.MessageVolume(s.Messages, r)
			res.SessionVolume, _ = metrics.SessionVolume(s.Messages, r)
		},
		func() {
			res.Scorecards, _ = metrics.OperatorScorecards(s.Sessions, r, cfg.SatisfactionThreshold)
			res.Latency, _ = metrics.LatencyDistributions(s.Sessions, r)
			res.ResponseTimes, _ = metrics.ResponseTimeByPeriod(s.Sessions, r)
		},
		func() {
			res.Closure, _ = metrics.ClosureBreakdown(s.Sessions, r)
			res.Breakdown, _ = metrics.ChannelTypeBreakdown(s.Messages, s.Sessions, r)
			res.Bands, _ = metrics.DurationBandAnalysis(s.Sessions, r)
		},
		func() {
			res.Overview, _ = metrics.ComputeOverview(s.Messages, s.Sessions, r)
			res.Sentiment, _ = metrics.SentimentBreakdown(s.Messages, r, strategy)
		},
	}
	wg.Add(len(stages))
	for _, stage := range stages {
		go func(fn func()) {
			defer wg.Done()
			fn()
		}(stage)
	}
	wg.Wait()

	res.Headlines = insights.Summarize(insights.Inputs{
		Scorecards:   res.Scorecards,
		Volume:       res.Volume,
		Sentiment:    res.Sentiment,
		Contacts:     s.Index.Contacts,
		Load:         s.Report,
		MinSample:    cfg.MinSample,
		PeakQuantile: cfg.PeakQuantile,
	})
	return res, nil
}
