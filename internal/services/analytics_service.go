package services

import (
	"sort"
	"time"

	"github.com/mindscreen/mindscreen/internal/instrument"
	"github.com/mindscreen/mindscreen/internal/models"
)

// AnalyticsStore abstracts the reads the dashboard needs.
type AnalyticsStore interface {
	ListAssessments() []*models.AssessmentRecord
	ListJournal() []*models.JournalEntry
}

// AnalyticsService aggregates stored assessments into the dashboard summary.
type AnalyticsService struct {
	store AnalyticsStore
	now   func() time.Time
}

// InstrumentStats summarizes one instrument's history.
type InstrumentStats struct {
	Instrument     string  `json:"instrument"`
	Count          int     `json:"count"`
	MeanTotal      float64 `json:"mean_total"`
	LatestTotal    int     `json:"latest_total"`
	LatestSeverity string  `json:"latest_severity"`
	Alpha          float64 `json:"alpha"`
	AlphaN         int     `json:"alpha_n"`
}

// TimeseriesPoint counts assessments taken on one calendar day (UTC).
type TimeseriesPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DashboardSummary is the aggregate view served at /api/dashboard.
type DashboardSummary struct {
	TotalAssessments int                  `json:"total_assessments"`
	TierCounts       map[string]int       `json:"tier_counts"`
	Instruments      []InstrumentStats    `json:"instruments"`
	Timeseries       []TimeseriesPoint    `json:"timeseries"`
	StreakDays       int                  `json:"streak_days"`
	JournalEntries   int                  `json:"journal_entries"`
	LatestJournal    *models.JournalEntry `json:"latest_journal,omitempty"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Summary builds the dashboard aggregate from all stored assessments.
func (s *AnalyticsService) Summary() *DashboardSummary {
	records := s.store.ListAssessments()
	journal := s.store.ListJournal()

	tiers := map[string]int{}
	countsByDay := map[string]int{}
	byInstrument := map[string][]*models.AssessmentRecord{}
	for _, rec := range records {
		tiers[rec.RiskTier]++
		countsByDay[rec.CreatedAt.UTC().Format("2006-01-02")]++
		byInstrument[rec.Instrument] = append(byInstrument[rec.Instrument], rec)
	}

	out := &DashboardSummary{
		TotalAssessments: len(records),
		TierCounts:       tiers,
		Instruments:      buildInstrumentStats(byInstrument),
		Timeseries:       buildTimeseries(countsByDay),
		StreakDays:       streakDays(countsByDay, s.now()),
		JournalEntries:   len(journal),
	}
	if len(journal) > 0 {
		out.LatestJournal = latestJournal(journal)
	}
	return out
}

// Alpha computes Cronbach's alpha over one instrument's response matrix.
func (s *AnalyticsService) Alpha(id instrument.ID) (float64, int) {
	var recs []*models.AssessmentRecord
	for _, rec := range s.store.ListAssessments() {
		if rec.Instrument == string(id) {
			recs = append(recs, rec)
		}
	}
	matrix := buildAlphaMatrix(recs)
	return CronbachAlpha(matrix), len(matrix)
}

func buildInstrumentStats(byInstrument map[string][]*models.AssessmentRecord) []InstrumentStats {
	ids := make([]string, 0, len(byInstrument))
	for id := range byInstrument {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]InstrumentStats, 0, len(ids))
	for _, id := range ids {
		recs := byInstrument[id]
		sum := 0
		latest := recs[0]
		for _, rec := range recs {
			sum += rec.Total
			if rec.CreatedAt.After(latest.CreatedAt) {
				latest = rec
			}
		}
		matrix := buildAlphaMatrix(recs)
		out = append(out, InstrumentStats{
			Instrument:     id,
			Count:          len(recs),
			MeanTotal:      float64(sum) / float64(len(recs)),
			LatestTotal:    latest.Total,
			LatestSeverity: latest.Severity,
			Alpha:          CronbachAlpha(matrix),
			AlphaN:         len(matrix),
		})
	}
	return out
}

// buildAlphaMatrix keeps only complete response rows of uniform width, shaped
// [nAssessments][nItems] for CronbachAlpha.
func buildAlphaMatrix(recs []*models.AssessmentRecord) [][]float64 {
	var width int
	matrix := make([][]float64, 0, len(recs))
	for _, rec := range recs {
		if len(rec.Responses) == 0 {
			continue
		}
		if width == 0 {
			width = len(rec.Responses)
		}
		if len(rec.Responses) != width {
			continue
		}
		row := make([]float64, width)
		for i, v := range rec.Responses {
			row[i] = float64(v)
		}
		matrix = append(matrix, row)
	}
	return matrix
}

func buildTimeseries(counts map[string]int) []TimeseriesPoint {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]TimeseriesPoint, 0, len(days))
	for _, d := range days {
		out = append(out, TimeseriesPoint{Date: d, Count: counts[d]})
	}
	return out
}

// streakDays counts consecutive calendar days with at least one assessment,
// walking backwards from today. A streak may also start yesterday so that a
// check-in earlier today is not required to keep it alive.
func streakDays(counts map[string]int, now time.Time) int {
	day := now.UTC().Truncate(24 * time.Hour)
	if counts[day.Format("2006-01-02")] == 0 {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for counts[day.Format("2006-01-02")] > 0 {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func latestJournal(entries []*models.JournalEntry) *models.JournalEntry {
	latest := entries[0]
	for _, e := range entries {
		if e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	return latest
}
