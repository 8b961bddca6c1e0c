package api

import (
	"sort"
	"sync"
	"time"

	"github.com/mindscreen/mindscreen/internal/models"
)

// memoryStore is an in-memory Store for tests and dev mode. Records are
// copied on the way in and out so callers cannot mutate shared state.
type memoryStore struct {
	mu          sync.RWMutex
	assessments map[string]*models.AssessmentRecord
	journal     []*models.JournalEntry
	profile     *models.Profile
	users       map[string]*models.User
	audit       []*models.AuditEntry
	lastExport  map[string]time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		assessments: map[string]*models.AssessmentRecord{},
		users:       map[string]*models.User{},
		lastExport:  map[string]time.Time{},
	}
}

func (s *memoryStore) AddAssessment(rec *models.AssessmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Responses = append([]int(nil), rec.Responses...)
	s.assessments[rec.ID] = &cp
	return nil
}

func (s *memoryStore) GetAssessment(id string) *models.AssessmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.assessments[id]
	if !ok {
		return nil
	}
	cp := *rec
	cp.Responses = append([]int(nil), rec.Responses...)
	return &cp
}

func (s *memoryStore) ListAssessments() []*models.AssessmentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AssessmentRecord, 0, len(s.assessments))
	for _, rec := range s.assessments {
		cp := *rec
		cp.Responses = append([]int(nil), rec.Responses...)
		out = append(out, &cp)
	}
	// newest first, id as tie-breaker for a stable order
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memoryStore) DeleteAssessments() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.assessments)
	s.assessments = map[string]*models.AssessmentRecord{}
	return n, nil
}

func (s *memoryStore) AddJournal(e *models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.journal = append(s.journal, &cp)
	return nil
}

func (s *memoryStore) ListJournal() []*models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.JournalEntry, 0, len(s.journal))
	for _, e := range s.journal {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memoryStore) SaveProfile(p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.profile = &cp
	return nil
}

func (s *memoryStore) GetProfile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	cp := *s.profile
	return &cp
}

func (s *memoryStore) AddUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) AddAudit(e *models.AuditEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.audit = append(s.audit, &cp)
}

func (s *memoryStore) AllowExport(actor string, minInterval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if last, ok := s.lastExport[actor]; ok && now.Sub(last) < minInterval {
		return false
	}
	s.lastExport[actor] = now
	return true
}
