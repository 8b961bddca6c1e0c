package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/models"
)

func readCSV(b []byte) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(string(b)))
	return r.ReadAll()
}

func TestExportHistoryCSV(t *testing.T) {
	records := []*models.AssessmentRecord{
		{
			ID:         "a1",
			Instrument: "gad7",
			Responses:  []int{0, 1, 2, 3, 0, 1, 2},
			Total:      9,
			MaxTotal:   21,
			Severity:   "Mild Anxiety",
			RiskTier:   "Moderate",
			CreatedAt:  time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:         "a2",
			Instrument: "pss10",
			Responses:  []int{4, 4, 4, 0, 0, 4, 0, 0, 4, 4},
			Total:      40,
			MaxTotal:   40,
			Severity:   "High Stress",
			Predicted:  "High Stress",
			RiskTier:   "Critical",
			CreatedAt:  time.Date(2025, 11, 2, 11, 0, 0, 0, time.UTC),
		},
	}
	b, err := ExportHistoryCSV(records)
	if err != nil {
		t.Fatalf("export history: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1+len(records) {
		t.Fatalf("want %d rows, got %d", 1+len(records), len(recs))
	}
	wantHeader := "id,created_at,instrument,total,max_total,severity,predicted,risk_tier,participant_name,age_group,responses"
	if got := strings.Join(recs[0], ","); got != wantHeader {
		t.Fatalf("bad header: %s", got)
	}
	if recs[1][10] != "0|1|2|3|0|1|2" {
		t.Fatalf("bad responses column: %s", recs[1][10])
	}
	if recs[2][1] != "2025-11-02T11:00:00Z" {
		t.Fatalf("bad timestamp column: %s", recs[2][1])
	}
}

func TestExportHistoryCSVEmpty(t *testing.T) {
	b, err := ExportHistoryCSV(nil)
	if err != nil {
		t.Fatalf("export history: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("empty export should still carry the header, got %d rows", len(recs))
	}
}

func TestExportJournalCSV(t *testing.T) {
	entries := []*models.JournalEntry{
		{ID: "j1", Mood: "okay", Note: "long day, slept late", CreatedAt: time.Date(2025, 11, 1, 22, 0, 0, 0, time.UTC)},
	}
	b, err := ExportJournalCSV(entries)
	if err != nil {
		t.Fatalf("export journal: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 rows, got %d", len(recs))
	}
	if recs[1][3] != "long day, slept late" {
		t.Fatalf("bad note column: %s", recs[1][3])
	}
}

func TestExportItemsCSV(t *testing.T) {
	def := instrument.MustLookup(instrument.PSS10)
	b, err := ExportItemsCSV(def)
	if err != nil {
		t.Fatalf("export items: %v", err)
	}
	recs, err := readCSV(b)
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(recs) != 1+len(def.Items) {
		t.Fatalf("want %d rows, got %d", 1+len(def.Items), len(recs))
	}
	// Item 4 is reverse scored on this instrument.
	if recs[4][2] != "true" {
		t.Fatalf("item 4 reverse flag = %s, want true", recs[4][2])
	}
	if recs[1][2] != "false" {
		t.Fatalf("item 1 reverse flag = %s, want false", recs[1][2])
	}
}
