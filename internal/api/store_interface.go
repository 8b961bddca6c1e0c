package api

import (
	"time"

	"github.com/mindscreen/mindscreen/internal/models"
)

// Store is the persistence surface the HTTP layer wires into the services.
// The SQLite store implements it for production; the in-memory store backs
// tests and --mem mode.
type Store interface {
	AddAssessment(rec *models.AssessmentRecord) error
	GetAssessment(id string) *models.AssessmentRecord
	ListAssessments() []*models.AssessmentRecord
	DeleteAssessments() (int, error)

	AddJournal(e *models.JournalEntry) error
	ListJournal() []*models.JournalEntry

	SaveProfile(p *models.Profile) error
	GetProfile() *models.Profile

	AddUser(u *models.User) error
	FindUserByEmail(email string) (*models.User, error)

	AddAudit(e *models.AuditEntry)

	AllowExport(actor string, minInterval time.Duration) bool
}

var _ Store = (*memoryStore)(nil)
