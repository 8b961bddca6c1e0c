package services

import (
	"strings"
	"time"

	"github.com/mindscreen/mindscreen/internal/models"
)

// JournalStore abstracts persistence for mood journal entries and the
// respondent profile.
type JournalStore interface {
	AddJournal(e *models.JournalEntry) error
	ListJournal() []*models.JournalEntry
	SaveProfile(p *models.Profile) error
	GetProfile() *models.Profile
}

// Moods accepted by the journal; mirrors the check-in choices on the UI.
var validMoods = map[string]bool{
	"great": true,
	"good":  true,
	"okay":  true,
	"low":   true,
	"bad":   true,
}

// JournalService manages mood check-ins and the last-used profile.
type JournalService struct {
	store       JournalStore
	now         func() time.Time
	idGenerator func() string
}

func NewJournalService(store JournalStore) *JournalService {
	return &JournalService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: defaultAssessmentID,
	}
}

// AddEntry validates and stores one mood check-in. Mood is required; the
// free-text note is optional and capped to keep the store bounded.
func (s *JournalService) AddEntry(mood, note string) (*models.JournalEntry, error) {
	mood = strings.ToLower(strings.TrimSpace(mood))
	if !validMoods[mood] {
		return nil, NewInvalidError("mood must be one of great, good, okay, low, bad")
	}
	note = strings.TrimSpace(note)
	if len(note) > 2000 {
		return nil, NewInvalidError("note too long (max 2000 characters)")
	}
	entry := &models.JournalEntry{
		ID:        s.idGenerator(),
		Mood:      mood,
		Note:      note,
		CreatedAt: s.now(),
	}
	if err := s.store.AddJournal(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries lists stored journal entries.
func (s *JournalService) Entries() []*models.JournalEntry {
	return s.store.ListJournal()
}

var ageGroups = map[string]bool{
	"":      true, // unset is allowed
	"<18":   true,
	"18-24": true,
	"25-34": true,
	"35-44": true,
	"45-59": true,
	"60+":   true,
}

// SaveProfile stores the last-used respondent profile so new assessments
// can be prefilled.
func (s *JournalService) SaveProfile(name, ageGroup string) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	ageGroup = strings.TrimSpace(ageGroup)
	if name == "" && ageGroup == "" {
		return nil, NewInvalidError("profile requires a name or age group")
	}
	if !ageGroups[ageGroup] {
		return nil, NewInvalidError("unknown age group")
	}
	p := &models.Profile{Name: name, AgeGroup: ageGroup, UpdatedAt: s.now()}
	if err := s.store.SaveProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Profile returns the stored profile, or nil when none was saved yet.
func (s *JournalService) Profile() *models.Profile {
	return s.store.GetProfile()
}
