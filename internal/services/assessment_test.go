package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/model"
	"github.com/mindscreen/mindscreen/internal/models"
	"github.com/mindscreen/mindscreen/internal/reslog"
)

type stubAssessmentStore struct {
	records []*models.AssessmentRecord
	addErr  error
}

func (s *stubAssessmentStore) AddAssessment(rec *models.AssessmentRecord) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *stubAssessmentStore) GetAssessment(id string) *models.AssessmentRecord {
	for _, r := range s.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *stubAssessmentStore) ListAssessments() []*models.AssessmentRecord {
	return s.records
}

func (s *stubAssessmentStore) DeleteAssessments() (int, error) {
	n := len(s.records)
	s.records = nil
	return n, nil
}

type stubSink struct {
	records []reslog.Record
	err     error
}

func (s *stubSink) Append(rec reslog.Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func newTestAssessmentService(store *stubAssessmentStore, sink ResultSink) *AssessmentService {
	svc := NewAssessmentService(store, sink)
	svc.now = func() time.Time { return time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC) }
	n := 0
	svc.idGenerator = func() string {
		n++
		return "assessment-" + string(rune('0'+n))
	}
	return svc
}

func TestSubmitScoresAndLogs(t *testing.T) {
	store := &stubAssessmentStore{}
	sink := &stubSink{}
	svc := newTestAssessmentService(store, sink)

	rec, err := svc.Submit(SubmitAssessmentRequest{
		Instrument: "gad7",
		Responses:  []int{3, 3, 3, 3, 3, 3, 3},
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if rec.Total != 21 || rec.Severity != "Severe Anxiety" || rec.RiskTier != "Critical" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(store.records) != 1 {
		t.Fatalf("stored %d records, want 1", len(store.records))
	}
	if len(sink.records) != 1 {
		t.Fatalf("logged %d records, want 1", len(sink.records))
	}
	logged := sink.records[0]
	if logged.Instrument != "gad7" || logged.Score != 21 || logged.MaxScore != 21 ||
		logged.Severity != "Severe Anxiety" || logged.RiskTier != "Critical" {
		t.Fatalf("unexpected log record: %+v", logged)
	}
	if !logged.Timestamp.Equal(rec.CreatedAt) {
		t.Fatalf("log timestamp %v differs from record %v", logged.Timestamp, rec.CreatedAt)
	}
}

func TestSubmitRejectsUnknownInstrument(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	_, err := svc.Submit(SubmitAssessmentRequest{Instrument: "mmpi", Responses: []int{1}})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("error = %v, want not_found", err)
	}
}

func TestSubmitRejectsInvalidResponses(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	_, err := svc.Submit(SubmitAssessmentRequest{Instrument: "gad7", Responses: []int{0, 0, 0}})
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("error = %v, want invalid", err)
	}
	if len(svc.store.(*stubAssessmentStore).records) != 0 {
		t.Fatal("invalid submission must not be persisted")
	}
}

func TestSubmitSurfacesSinkFailure(t *testing.T) {
	store := &stubAssessmentStore{}
	sink := &stubSink{err: errors.New("disk full")}
	svc := newTestAssessmentService(store, sink)
	_, err := svc.Submit(SubmitAssessmentRequest{
		Instrument: "gad7",
		Responses:  []int{0, 0, 0, 0, 0, 0, 0},
	})
	if err == nil {
		t.Fatal("expected error when the result sink fails")
	}
}

func TestSubmitUsesClassifierLabelForRisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gad7.json")
	// Weights sum the seven scored items; positive threshold at total > 10.
	artifact := `{
		"weights": [[1,1,1,1,1,1,1]],
		"intercepts": [-10],
		"classes": ["Minimal Anxiety","Severe Anxiety"]
	}`
	if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	store := &stubAssessmentStore{}
	svc := newTestAssessmentService(store, &stubSink{})
	svc.UseModel(instrument.GAD7, model.NewHandle(path, nil))

	rec, err := svc.Submit(SubmitAssessmentRequest{
		Instrument: "gad7",
		Responses:  []int{2, 2, 2, 2, 2, 2, 2}, // total 14, banded Moderate
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if rec.Predicted != "Severe Anxiety" {
		t.Fatalf("predicted = %q, want Severe Anxiety", rec.Predicted)
	}
	if rec.Severity != "Moderate Anxiety" {
		t.Fatalf("severity = %q, want banded Moderate Anxiety", rec.Severity)
	}
	if rec.RiskTier != "Critical" {
		t.Fatalf("risk tier = %q, want Critical from predicted label", rec.RiskTier)
	}
}

func TestSubmitFailsWhenModelMissing(t *testing.T) {
	svc := newTestAssessmentService(&stubAssessmentStore{}, nil)
	svc.UseModel(instrument.GAD7, model.NewHandle(filepath.Join(t.TempDir(), "absent.json"), nil))

	_, err := svc.Submit(SubmitAssessmentRequest{
		Instrument: "gad7",
		Responses:  []int{0, 0, 0, 0, 0, 0, 0},
	})
	if !errors.Is(err, model.ErrModelUnavailable) {
		t.Fatalf("error = %v, want ErrModelUnavailable", err)
	}
}

func TestHistoryAndClear(t *testing.T) {
	store := &stubAssessmentStore{}
	svc := newTestAssessmentService(store, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(SubmitAssessmentRequest{
			Instrument: "gad7",
			Responses:  []int{1, 1, 1, 1, 1, 1, 1},
		}); err != nil {
			t.Fatalf("Submit returned error: %v", err)
		}
	}
	if got := len(svc.History()); got != 3 {
		t.Fatalf("history has %d records, want 3", got)
	}
	n, err := svc.Clear()
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("Clear removed %d records, want 3", n)
	}
	if got := len(svc.History()); got != 0 {
		t.Fatalf("history has %d records after clear, want 0", got)
	}
}
