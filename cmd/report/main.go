package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/thomazkrause/dashboard-cx/internal/config"
	"github.com/thomazkrause/dashboard-cx/internal/logger"
	"github.com/thomazkrause/dashboard-cx/internal/pipeline"
	"github.com/thomazkrause/dashboard-cx/internal/report"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "dashboard-cx").Info("starting report run")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	snap := pipeline.Run(cfg)
	runLog := log.WithRun(snap.RunID)
	for _, w := range snap.Report.AllWarnings() {
		runLog.Warn(w)
	}

	// Full available period; narrower ranges are a presentation concern.
	results, err := snap.ComputeAll(cfg, types.DateRange{})
	if err != nil {
		runLog.WithError(err).Fatal("aggregation failed")
	}

	h := results.Headlines
	if h.TopRatedOperator != nil {
		runLog.WithFields(logrus.Fields{
			"operator":   h.TopRatedOperator.OperatorID,
			"avg_rating": h.TopRatedOperator.AvgRating,
		}).Info("top rated operator")
	}
	if h.MostEfficientOperator != nil {
		runLog.WithFields(logrus.Fields{
			"operator":      h.MostEfficientOperator.OperatorID,
			"sessions_hour": h.MostEfficientOperator.SessionsPerHour,
		}).Info("most efficient operator")
	}
	if h.PeakHour != nil {
		runLog.WithFields(logrus.Fields{
			"hour":     h.PeakHour.Hour,
			"messages": h.PeakHour.Messages,
		}).Info("peak demand hour")
	}
	if h.NegativeSentiment != nil {
		runLog.WithField("percent", h.NegativeSentiment.Percent).Info("negative sentiment rate")
	}
	for _, note := range h.DataNotes {
		runLog.Warn(note)
	}

	outDir := envOr("OUTPUT_DIR", "reports")
	if err := report.ExportProcessed(outDir, snap); err != nil {
		runLog.WithError(err).Error("processed-table export failed")
	}
	if err := report.ExportWorkbook(filepath.Join(outDir, "metrics.xlsx"), results); err != nil {
		runLog.WithError(err).Error("workbook export failed")
	}
	runLog.WithField("output_dir", outDir).Info("report run finished")
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
