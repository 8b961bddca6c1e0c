package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/models"
)

// ExportHistoryCSV renders stored assessments into a wide CSV, one row per
// assessment. Raw responses are pipe-joined into a single column so the row
// width stays fixed across instruments.
func ExportHistoryCSV(records []*models.AssessmentRecord) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{
		"id", "created_at", "instrument", "total", "max_total",
		"severity", "predicted", "risk_tier", "participant_name", "age_group", "responses",
	})
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Instrument,
			strconv.Itoa(rec.Total),
			strconv.Itoa(rec.MaxTotal),
			rec.Severity,
			rec.Predicted,
			rec.RiskTier,
			rec.ParticipantName,
			rec.AgeGroup,
			joinInts(rec.Responses),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportJournalCSV renders journal entries for download.
func ExportJournalCSV(entries []*models.JournalEntry) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "created_at", "mood", "note"})
	for _, e := range entries {
		row := []string{e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Mood, e.Note}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportItemsCSV renders an instrument's item definitions to aid review.
func ExportItemsCSV(def *instrument.Definition) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"code", "position", "reverse_scored", "min", "max", "stem_en", "stem_bn"})
	for i, it := range def.Items {
		row := []string{
			it.Code,
			strconv.Itoa(i + 1),
			strconv.FormatBool(it.ReverseScored),
			strconv.Itoa(def.MinValue),
			strconv.Itoa(def.MaxValue),
			it.StemI18n["en"],
			it.StemI18n["bn"],
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func joinInts(vals []int) string {
	if len(vals) == 0 {
		return ""
	}
	out := make([]byte, 0, 3*len(vals))
	for i, v := range vals {
		if i > 0 {
			out = append(out, '|')
		}
		out = strconv.AppendInt(out, int64(v), 10)
	}
	return string(out)
}
