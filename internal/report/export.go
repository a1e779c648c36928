package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/thomazkrause/dashboard-cx/internal/pipeline"
	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// ExportProcessed writes the normalized message and session tables as CSV
// into dir, creating it if needed.
func ExportProcessed(dir string, snap *pipeline.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeMessages(filepath.Join(dir, "messages_processed.csv"), snap.Messages); err != nil {
		return err
	}
	if err := writeSessions(filepath.Join(dir, "sessions_processed.csv"), snap.Sessions); err != nil {
		return err
	}
	return nil
}

func writeMessages(path string, messages []types.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"messageID", "sessionID", "contactID", "messageDirection", "messageKey",
		"createdAt", "date", "hour", "weekday"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range messages {
		rec := []string{
			m.MessageID, m.SessionID, m.ContactID, string(m.Direction), string(m.Type),
			m.CreatedAt.Format(time.RFC3339), m.Date,
			strconv.Itoa(m.Hour), strconv.Itoa(m.Weekday),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeSessions(path string, sessions []types.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"sessionID", "operatorID", "queueSeconds", "manualSeconds", "totalSeconds",
		"rating", "closeMotive", "messageCount", "openedAt", "channel", "pluginConnectionLabel"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range sessions {
		rating := ""
		if s.Rating != nil {
			rating = strconv.Itoa(*s.Rating)
		}
		rec := []string{
			s.SessionID, s.OperatorID,
			strconv.FormatFloat(s.QueueDuration.Seconds(), 'f', -1, 64),
			strconv.FormatFloat(s.ManualDuration.Seconds(), 'f', -1, 64),
			strconv.FormatFloat(s.TotalDuration.Seconds(), 'f', -1, 64),
			rating, string(s.CloseMotive), strconv.Itoa(s.MessageCount),
			s.OpenedAt.Format(time.RFC3339), s.Channel, s.PluginConnectionLabel,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// ExportWorkbook writes the computed metrics as a multi-sheet workbook for
// offline review, one sheet per report.
func ExportWorkbook(path string, res *pipeline.Results) error {
	f := excelize.NewFile()
	defer f.Close()

	writeOverviewSheet(f, res)
	writeOperatorsSheet(f, res)
	writeClosureSheet(f, res)
	writeSentimentSheet(f, res)
	writeLoyaltySheet(f, res)
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeOverviewSheet(f *excelize.File, res *pipeline.Results) {
	sheet := "Overview"
	f.NewSheet(sheet)
	o := res.Overview
	rows := [][]interface{}{
		{"metric", "value"},
		{"total messages", o.TotalMessages},
		{"inbound messages", o.InboundMessages},
		{"outbound messages", o.OutboundMessages},
		{"unique contacts", o.UniqueContacts},
		{"unique sessions", o.UniqueSessions},
		{"total sessions", o.TotalSessions},
		{"avg session minutes", o.AvgSessionMinutes},
		{"avg queue minutes", o.AvgQueueMinutes},
		{"avg rating", o.AvgRating},
		{"unique operators", o.UniqueOperators},
	}
	writeRows(f, sheet, rows)
}

func writeOperatorsSheet(f *excelize.File, res *pipeline.Results) {
	sheet := "Operators"
	f.NewSheet(sheet)
	rows := [][]interface{}{
		{"operator", "sessions", "rated", "avg rating", "satisfaction", "avg handle s", "sessions/h", "messages"},
	}
	for _, op := range res.Scorecards.Operators {
		rows = append(rows, []interface{}{
			op.OperatorID, op.Sessions, op.RatedSessions, op.AvgRating,
			op.SatisfactionRate, op.AvgHandleSeconds, op.SessionsPerHour, op.TotalMessages,
		})
	}
	rows = append(rows, []interface{}{"(unassigned)", res.Scorecards.Unassigned})
	writeRows(f, sheet, rows)
}

func writeClosureSheet(f *excelize.File, res *pipeline.Results) {
	sheet := "Closure"
	f.NewSheet(sheet)
	rows := [][]interface{}{{"motive", "sessions", "percent", "avg duration s", "avg messages", "avg rating"}}
	for _, c := range res.Closure.Reasons {
		rows = append(rows, []interface{}{
			string(c.Motive), c.Count, c.Percent, c.AvgDurationSeconds, c.AvgMessages, c.AvgRating,
		})
	}
	writeRows(f, sheet, rows)
}

func writeSentimentSheet(f *excelize.File, res *pipeline.Results) {
	sheet := "Sentiment"
	f.NewSheet(sheet)
	s := res.Sentiment
	rows := [][]interface{}{
		{"classified", s.Classified},
		{"positive", s.Counts.Positive},
		{"neutral", s.Counts.Neutral},
		{"negative", s.Counts.Negative},
		{"negative rate", s.NegativeRate},
		{},
		{"date", "positive", "neutral", "negative"},
	}
	dates := make([]string, 0, len(s.ByDate))
	for d := range s.ByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		c := s.ByDate[d]
		rows = append(rows, []interface{}{d, c.Positive, c.Neutral, c.Negative})
	}
	writeRows(f, sheet, rows)
}

func writeLoyaltySheet(f *excelize.File, res *pipeline.Results) {
	sheet := "Loyalty"
	f.NewSheet(sheet)
	rows := [][]interface{}{{"tier", "contacts"}}
	for _, tier := range []types.LoyaltyTier{types.TierSingle, types.TierOccasional, types.TierRegular, types.TierFrequent} {
		rows = append(rows, []interface{}{string(tier), res.Headlines.LoyaltyDistribution[tier]})
	}
	writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) {
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = f.SetSheetRow(sheet, cell, &row)
	}
}
