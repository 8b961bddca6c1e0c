package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/model"
	"github.com/mindscreen/mindscreen/internal/models"
	"github.com/mindscreen/mindscreen/internal/reslog"
)

// AssessmentStore abstracts persistence operations required by AssessmentService.
type AssessmentStore interface {
	AddAssessment(rec *models.AssessmentRecord) error
	GetAssessment(id string) *models.AssessmentRecord
	ListAssessments() []*models.AssessmentRecord
	DeleteAssessments() (int, error)
}

// ResultSink receives one flat record per scored assessment. The CSV result
// log implements it; tests substitute an in-memory sink.
type ResultSink interface {
	Append(rec reslog.Record) error
}

// SubmitAssessmentRequest transports the sanitized handler input into the
// service layer.
type SubmitAssessmentRequest struct {
	Instrument      string
	Responses       []int
	ParticipantName string
	AgeGroup        string
}

// AssessmentService hosts the core screening workflow: validate and score
// the responses, optionally run the configured classifier, map the label to
// a risk tier, then persist the record and append it to the result log.
type AssessmentService struct {
	store       AssessmentStore
	sink        ResultSink
	handles     map[instrument.ID]*model.Handle
	now         func() time.Time
	idGenerator func() string
}

// NewAssessmentService constructs a service bound to the provided
// persistence interface and result sink. Sink may be nil to disable the
// flat log.
func NewAssessmentService(store AssessmentStore, sink ResultSink) *AssessmentService {
	return &AssessmentService{
		store:       store,
		sink:        sink,
		handles:     make(map[instrument.ID]*model.Handle),
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultAssessmentID,
	}
}

func defaultAssessmentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// UseModel attaches a classifier artifact handle to one instrument. When a
// handle is attached, its predicted label replaces the banded label for
// risk mapping; a failed load aborts the submission instead of silently
// falling back.
func (s *AssessmentService) UseModel(id instrument.ID, h *model.Handle) {
	s.handles[id] = h
}

// Submit runs the full screening workflow and returns the stored record.
func (s *AssessmentService) Submit(req SubmitAssessmentRequest) (*models.AssessmentRecord, error) {
	if s.store == nil {
		return nil, NewUnavailableError("assessment store is nil")
	}
	def, err := instrument.Lookup(instrument.ID(req.Instrument))
	if err != nil {
		return nil, NewNotFoundError(fmt.Sprintf("unknown instrument %q", req.Instrument))
	}

	result, err := Score(req.Responses, def)
	if err != nil {
		return nil, err
	}

	label := result.Label
	predicted := ""
	if h, ok := s.handles[def.ID]; ok && h != nil {
		c, err := h.Get()
		if err != nil {
			return nil, err
		}
		predicted, err = c.PredictLabel(scoredValues(req.Responses, def))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrModelUnavailable, err)
		}
		label = predicted
	}
	risk := ToRisk(def.ID, label)

	rec := &models.AssessmentRecord{
		ID:              s.idGenerator(),
		Instrument:      string(def.ID),
		Responses:       req.Responses,
		Total:           result.Total,
		MaxTotal:        result.MaxTotal,
		Severity:        result.Label,
		Predicted:       predicted,
		RiskTier:        string(risk.Tier),
		ParticipantName: strings.TrimSpace(req.ParticipantName),
		AgeGroup:        strings.TrimSpace(req.AgeGroup),
		CreatedAt:       s.now(),
	}
	if err := s.store.AddAssessment(rec); err != nil {
		return nil, err
	}

	if s.sink != nil {
		err := s.sink.Append(reslog.Record{
			Timestamp:  rec.CreatedAt,
			Instrument: rec.Instrument,
			Score:      rec.Total,
			MaxScore:   rec.MaxTotal,
			Severity:   rec.Severity,
			RiskTier:   rec.RiskTier,
		})
		if err != nil {
			return nil, fmt.Errorf("append result log: %w", err)
		}
	}
	return rec, nil
}

// scoredValues returns the per-item values after reverse scoring, which is
// the feature order classifier artifacts are trained on.
func scoredValues(responses []int, def *instrument.Definition) []float64 {
	out := make([]float64, len(responses))
	for i, raw := range responses {
		v := raw
		if def.Items[i].ReverseScored {
			v = ReverseScore(raw, def.MinValue, def.MaxValue)
		}
		out[i] = float64(v)
	}
	return out
}

// Get returns one stored assessment or a not-found error.
func (s *AssessmentService) Get(id string) (*models.AssessmentRecord, error) {
	rec := s.store.GetAssessment(id)
	if rec == nil {
		return nil, NewNotFoundError("assessment not found")
	}
	return rec, nil
}

// History lists stored assessments, newest first.
func (s *AssessmentService) History() []*models.AssessmentRecord {
	return s.store.ListAssessments()
}

// Clear deletes all stored assessments and reports how many were removed.
func (s *AssessmentService) Clear() (int, error) {
	return s.store.DeleteAssessments()
}
